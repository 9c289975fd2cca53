package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/market-scout/internal/analysis"
	"github.com/sells-group/market-scout/internal/cache"
	"github.com/sells-group/market-scout/internal/category"
	"github.com/sells-group/market-scout/internal/store"
	anthropicpkg "github.com/sells-group/market-scout/pkg/anthropic"
	"github.com/sells-group/market-scout/pkg/census"
	"github.com/sells-group/market-scout/pkg/nominatim"
	"github.com/sells-group/market-scout/pkg/overpass"
)

// analyzerEnv holds the initialized clients, cache, store, and analyzer
// shared by the analyze and serve commands.
type analyzerEnv struct {
	Analyzer *analysis.Analyzer
	Store    store.Store
	Cache    cache.Cache
}

// Close releases resources held by the environment.
func (ae *analyzerEnv) Close() {
	if c, ok := ae.Cache.(*cache.Redis); ok {
		_ = c.Close()
	}
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

// initAnalyzer validates config, sets up the store, cache, API clients, and
// category resolver, and builds the Analyzer. Callers should defer
// env.Close().
func initAnalyzer(ctx context.Context) (*analyzerEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	responseCache, err := initCache(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	geocoder := nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
		nominatim.WithRateLimit(cfg.Nominatim.RateLimit),
	)
	censusClient := census.NewClient(cfg.Census.Key,
		census.WithBaseURL(cfg.Census.BaseURL),
		census.WithYear(cfg.Census.Year),
	)
	overpassClient := overpass.NewClient(
		overpass.WithBaseURL(cfg.Overpass.BaseURL),
		overpass.WithTimeout(time.Duration(cfg.Overpass.TimeoutSecs)*time.Second),
	)

	dict := category.DefaultDictionary()
	if cfg.Category.DictionaryPath != "" {
		dict, err = category.LoadDictionary(cfg.Category.DictionaryPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load category dictionary")
		}
	}

	var resolverOpts []category.Option
	if cfg.Anthropic.Key != "" {
		aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		resolverOpts = append(resolverOpts, category.WithAIFallback(
			aiClient, cfg.Anthropic.Model, time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second,
		))
		zap.L().Info("ai category fallback enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("SCOUT_ANTHROPIC_KEY not set, ai category fallback disabled")
	}
	resolver := category.NewResolver(dict, resolverOpts...)

	analyzer := analysis.New(geocoder, censusClient, overpassClient, resolver, responseCache, cfg.Analysis)

	return &analyzerEnv{
		Analyzer: analyzer,
		Store:    st,
		Cache:    responseCache,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "market-scout.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCache(ctx context.Context) (cache.Cache, error) {
	ttl := time.Duration(cfg.Cache.TTLSecs) * time.Second
	switch cfg.Cache.Backend {
	case "redis":
		c := cache.NewRedis(cfg.Cache.RedisAddr, ttl)
		if err := c.Ping(ctx); err != nil {
			return nil, eris.Wrap(err, "redis cache ping")
		}
		return c, nil
	default:
		return cache.NewMemory(ttl), nil
	}
}
