package category

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/pkg/anthropic"
)

// suffixPattern strips generic trailing words that rarely change the
// business type ("coffee shop" → "coffee").
var suffixPattern = regexp.MustCompile(`\b(shop|store|center|centre|place|location)\b`)

// tagPartPattern is the shape a usable tag key or value must match.
var tagPartPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const aiSystemPrompt = `You map business descriptions to OpenStreetMap tag pairs. ` +
	`Respond with a single JSON object of the form {"key":"...","value":"..."} ` +
	`using a standard OSM POI tag (amenity, shop, leisure, tourism, office, or craft). ` +
	`No explanation, no markdown.`

// Option configures the Resolver.
type Option func(*Resolver)

// WithAIFallback enables the Claude fallback for terms the dictionary
// cannot resolve.
func WithAIFallback(client anthropic.Client, aiModel string, timeout time.Duration) Option {
	return func(r *Resolver) {
		r.ai = client
		r.model = aiModel
		r.timeout = timeout
	}
}

// Resolver resolves business terms to category tags. Resolution never
// fails: terms nothing recognizes degrade to a literal amenity tag.
type Resolver struct {
	dict    []Entry
	ai      anthropic.Client
	model   string
	timeout time.Duration

	// Resolved tags are memoized per normalized term for the process
	// lifetime. This bounds the cost and the run-to-run variance of the AI
	// fallback; dictionary hits are pure functions anyway.
	mu   sync.Mutex
	memo map[string]model.CategoryTag
}

// NewResolver creates a Resolver over the given dictionary.
func NewResolver(dict []Entry, opts ...Option) *Resolver {
	r := &Resolver{
		dict:    dict,
		timeout: 10 * time.Second,
		memo:    make(map[string]model.CategoryTag),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a business term to a category tag. Matching runs cheapest
// first: exact dictionary hit, suffix-stripped hit, substring containment,
// then per-word containment. Only when all of those miss is the AI fallback
// consulted, and any AI failure degrades to amenity=<term>.
func (r *Resolver) Resolve(ctx context.Context, term string) model.CategoryTag {
	normalized := strings.ToLower(strings.TrimSpace(term))

	r.mu.Lock()
	if tag, ok := r.memo[normalized]; ok {
		r.mu.Unlock()
		return tag
	}
	r.mu.Unlock()

	tag, matched := r.lookup(normalized)
	if !matched {
		tag, matched = r.resolveAI(ctx, normalized)
	}
	if !matched {
		tag = literalTag(normalized)
	}

	r.mu.Lock()
	r.memo[normalized] = tag
	r.mu.Unlock()
	return tag
}

// lookup runs the dictionary match ladder against a normalized term.
func (r *Resolver) lookup(normalized string) (model.CategoryTag, bool) {
	if normalized == "" {
		return model.CategoryTag{}, false
	}

	// Exact match.
	for _, e := range r.dict {
		if e.Term == normalized {
			return e.Tag(), true
		}
	}

	// Strip generic suffix words and retry.
	cleaned := strings.TrimSpace(suffixPattern.ReplaceAllString(normalized, ""))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned != "" && cleaned != normalized {
		for _, e := range r.dict {
			if e.Term == cleaned {
				return e.Tag(), true
			}
		}
	}

	// Substring containment in either direction.
	for _, e := range r.dict {
		if strings.Contains(normalized, e.Term) || strings.Contains(e.Term, normalized) {
			return e.Tag(), true
		}
	}

	// Per-word containment, skipping short words.
	for _, word := range strings.Fields(normalized) {
		if len(word) <= 2 {
			continue
		}
		for _, e := range r.dict {
			if strings.Contains(e.Term, word) || strings.Contains(word, e.Term) {
				return e.Tag(), true
			}
		}
	}

	return model.CategoryTag{}, false
}

// aiTag is the strict response shape expected from the model.
type aiTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// resolveAI asks Claude for a tag pair. Every failure mode — no client
// configured, timeout, API error, unparsable or malformed response — returns
// ok=false so the caller degrades to the literal tag. This is a quality
// degradation, not an error, so it is logged and swallowed.
func (r *Resolver) resolveAI(ctx context.Context, normalized string) (model.CategoryTag, bool) {
	if r.ai == nil || normalized == "" {
		return model.CategoryTag{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	temp := 0.0
	resp, err := r.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   64,
		System:      aiSystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: normalized}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("category: ai fallback failed, using literal tag",
			zap.String("term", normalized),
			zap.Error(err),
		)
		return model.CategoryTag{}, false
	}

	var parsed aiTag
	if err := json.Unmarshal([]byte(stripFences(resp.Text)), &parsed); err != nil {
		zap.L().Warn("category: ai fallback returned unparsable response",
			zap.String("term", normalized),
			zap.String("response", resp.Text),
		)
		return model.CategoryTag{}, false
	}

	if !tagPartPattern.MatchString(parsed.Key) || !tagPartPattern.MatchString(parsed.Value) {
		zap.L().Warn("category: ai fallback returned malformed tag",
			zap.String("term", normalized),
			zap.String("key", parsed.Key),
			zap.String("value", parsed.Value),
		)
		return model.CategoryTag{}, false
	}

	return model.CategoryTag{Key: parsed.Key, Value: parsed.Value}, true
}

// stripFences removes markdown code fencing from a model response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// literalTag interprets the term itself as an amenity value. Quote and
// backslash characters are dropped so the value is always safe to embed in
// a spatial query.
func literalTag(normalized string) model.CategoryTag {
	value := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' {
			return -1
		}
		return r
	}, normalized)
	return model.CategoryTag{Key: "amenity", Value: value}
}
