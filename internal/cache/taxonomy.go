// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// taxonomy.go provides a Valkey-backed remember cache for the external
// taxonomy fetches. Raw JSON responses are stored under a fixed TTL so a
// full import only hits the source once per day.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// taxonomyKeyPrefix namespaces all taxonomy cache keys in Valkey.
	taxonomyKeyPrefix = "olx:"

	// categoriesKey holds the cached category list.
	categoriesKey = taxonomyKeyPrefix + "categories"

	// fieldsKeyPrefix holds per-category field responses, one key per
	// category external identifier.
	fieldsKeyPrefix = taxonomyKeyPrefix + "fields:"

	// DefaultTaxonomyTTL is how long a fetched response stays cached.
	DefaultTaxonomyTTL = 24 * time.Hour
)

// TaxonomyCache is a read-through cache over the external taxonomy source.
// groupedInvalidation is the backend capability flag resolved at startup:
// when true, Clear flushes the whole key group with a prefix scan; when
// false, it deletes the known keys one by one.
type TaxonomyCache struct {
	client              *redis.Client
	ttl                 time.Duration
	groupedInvalidation bool
}

// NewTaxonomyCache creates a taxonomy cache backed by the given Valkey client.
func NewTaxonomyCache(client *redis.Client, ttl time.Duration, groupedInvalidation bool) *TaxonomyCache {
	if ttl == 0 {
		ttl = DefaultTaxonomyTTL
	}
	return &TaxonomyCache{client: client, ttl: ttl, groupedInvalidation: groupedInvalidation}
}

// CategoriesKey returns the cache key for the category list.
func CategoriesKey() string {
	return categoriesKey
}

// FieldsKey returns the cache key for one category's field response.
func FieldsKey(externalID string) string {
	return fieldsKeyPrefix + externalID
}

// Remember returns the cached payload for key, or invokes fetch on a miss
// and stores the result under the configured TTL. Concurrent misses for the
// same key may each invoke fetch; acceptable for a daily-refresh workload.
func (tc *TaxonomyCache) Remember(ctx context.Context, key string, fetch func() ([]byte, error)) ([]byte, error) {
	val, err := tc.client.Get(ctx, key).Bytes()
	if err == nil {
		slog.Debug("taxonomy cache hit", "key", key)
		return val, nil
	}
	if err != redis.Nil {
		slog.Warn("taxonomy cache get error", "key", key, "error", err)
	}

	payload, err := fetch()
	if err != nil {
		return nil, err
	}

	if err := tc.client.Set(ctx, key, payload, tc.ttl).Err(); err != nil {
		slog.Warn("taxonomy cache set error", "key", key, "error", err)
	}
	return payload, nil
}

// Has reports whether a key is currently cached.
func (tc *TaxonomyCache) Has(ctx context.Context, key string) bool {
	n, err := tc.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Clear removes all taxonomy cache entries. With grouped invalidation the
// whole prefix is flushed by scanning; otherwise the categories key plus
// one fields key per known category external ID are deleted individually.
func (tc *TaxonomyCache) Clear(ctx context.Context, knownExternalIDs []string) error {
	if tc.groupedInvalidation {
		deleted, err := tc.clearByPrefix(ctx)
		if err != nil {
			return err
		}
		slog.Info("taxonomy cache cleared", "method", "grouped", "deleted", deleted)
		return nil
	}

	keys := make([]string, 0, len(knownExternalIDs)+1)
	keys = append(keys, categoriesKey)
	for _, id := range knownExternalIDs {
		keys = append(keys, FieldsKey(id))
	}
	if err := tc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("taxonomy cache clear: %w", err)
	}
	slog.Info("taxonomy cache cleared", "method", "individual_keys", "keys", len(keys))
	return nil
}

// clearByPrefix scans for every key under the taxonomy prefix and deletes
// them in batches.
func (tc *TaxonomyCache) clearByPrefix(ctx context.Context) (int, error) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := tc.client.Scan(ctx, cursor, taxonomyKeyPrefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("taxonomy cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := tc.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("taxonomy cache delete: %w", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Stats describes the cache configuration and current state for the
// command-line stats display.
type Stats struct {
	Driver              string  `json:"cache_driver"`
	TTLHours            float64 `json:"cache_ttl_hours"`
	CategoriesCached    bool    `json:"categories_cached"`
	GroupedInvalidation bool    `json:"supports_grouping"`
}

// Stats returns the current cache statistics.
func (tc *TaxonomyCache) Stats(ctx context.Context) Stats {
	return Stats{
		Driver:              "valkey",
		TTLHours:            tc.ttl.Hours(),
		CategoriesCached:    tc.Has(ctx, categoriesKey),
		GroupedInvalidation: tc.groupedInvalidation,
	}
}
