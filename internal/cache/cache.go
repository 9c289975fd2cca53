// Package cache provides the time-bounded response cache shared by the
// demographic and competitor fetch paths.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Cache stores serialized responses for a fixed TTL. Implementations treat
// expired entries as absent. There is no single-flight guarantee: concurrent
// requests for the same cold key may each run the fetch, which is acceptable
// because fetches are idempotent reads of the same external truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// GetOrFetch returns the cached value for key, or runs fetch and caches its
// result. A cached entry that no longer unmarshals is treated as a miss.
func GetOrFetch[T any](ctx context.Context, c Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if data, ok := c.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if data, err := json.Marshal(value); err == nil {
		c.Set(ctx, key, data)
	}
	return value, nil
}

// DemographicKey builds the cache key for a zip's census figures.
func DemographicKey(zip string) string {
	return "census-" + zip
}

// CompetitorZipKey builds the cache key for a boundary-mode competitor query.
func CompetitorZipKey(zip, term string) string {
	return fmt.Sprintf("competitor-%s-%s", zip, normalizeTerm(term))
}

// CompetitorRadiusKey builds the cache key for a radius-mode competitor
// query. Coordinates are rounded to four decimals (~11m) so trivially
// different geocodes of the same place share an entry.
func CompetitorRadiusKey(lat, lon float64, radiusMeters int, term string) string {
	return fmt.Sprintf("competitor-%.4f,%.4f-%d-%s", lat, lon, radiusMeters, normalizeTerm(term))
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
