// Package nominatim provides a client for the OSM Nominatim geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/market-scout/internal/resilience"
	"github.com/sells-group/market-scout/internal/model"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client defines the geocoding operations used by the analysis pipeline.
type Client interface {
	// Search forward-geocodes free text (address or zip) to the single best
	// candidate.
	Search(ctx context.Context, query string) (*Place, error)
	// ReverseZip reverse-geocodes coordinates to a 5-digit US zip code.
	// Returns "" with no error when the response carries no such postcode.
	ReverseZip(ctx context.Context, lat, lon float64) (string, error)
}

// Place is a geocoded location.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's public
// instance allows at most 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Nominatim API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: "market-scout/1.0",
		http:      &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult is one candidate from GET /search. Nominatim returns lat/lon
// as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// reverseResult is the response from GET /reverse.
type reverseResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Postcode string `json:"postcode"`
	} `json:"address"`
}

func (c *httpClient) Search(ctx context.Context, query string) (*Place, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse search response")
	}

	if len(results) == 0 {
		return nil, resilience.NewError(resilience.KindNotFound,
			eris.Errorf("nominatim: no results for %q", query))
	}

	best := results[0]
	lat, latErr := strconv.ParseFloat(best.Lat, 64)
	lon, lonErr := strconv.ParseFloat(best.Lon, 64)
	if latErr != nil || lonErr != nil || !finite(lat) || !finite(lon) {
		return nil, resilience.NewError(resilience.KindInvalidCoordinates,
			eris.Errorf("nominatim: unusable coordinates %q,%q for %q", best.Lat, best.Lon, query))
	}

	name := best.DisplayName
	if name == "" {
		name = query
	}
	return &Place{Lat: lat, Lon: lon, DisplayName: name}, nil
}

func (c *httpClient) ReverseZip(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}

	body, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return "", err
	}

	var result reverseResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", eris.Wrap(err, "nominatim: parse reverse response")
	}

	// A missing or non-US postcode is an "unknown" outcome, not a failure.
	if model.ValidZip(result.Address.Postcode) {
		return result.Address.Postcode, nil
	}
	return "", nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: %s request", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}
	return body, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
