package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides generic caching functionality over Redis.
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SerpAPICachePrefix namespaces the SerpAPI result cache key space
// (spec.md §5: "the SerpAPI 5-minute TTL cache").
const SerpAPICachePrefix = "serpapi:"

// SerpAPICacheKey generates a stable cache key for a SerpAPI query. The
// query params are hashed rather than concatenated raw so arbitrary
// key/value ordering produces the same key.
func SerpAPICacheKey(engine string, params map[string]string) string {
	h := sha256.New()
	h.Write([]byte(engine))
	// Deterministic ordering: params are small (a handful of fields), a
	// linear scan over a fixed field list is simpler than sorting keys.
	for _, k := range []string{"q", "domain", "advertiser_id", "region"} {
		if v, ok := params[k]; ok {
			fmt.Fprintf(h, "|%s=%s", k, v)
		}
	}
	return SerpAPICachePrefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// Get retrieves a value from cache and unmarshals it into the target
func (c *Cache) Get(ctx context.Context, key string, target interface{}) error {
	if c.client == nil {
		return redis.Nil // Treat a disabled cache as a miss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}

// Set stores a value in cache with the specified TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // No-op if no client configured
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a key from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}

	return c.client.Del(ctx, key).Err()
}

// IsNotFound checks if the error is a cache miss
func IsNotFound(err error) bool {
	return err == redis.Nil
}

// SerpAPICache wraps Cache with the SerpAPI connector's specific shape: a
// cached slice of raw result maps keyed by the normalized query, stored in
// Redis and best-effort (a failed Set is ignored, a failed Get is a miss);
// go-redis's client is safe for concurrent use.
type SerpAPICache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSerpAPICache creates a SerpAPI result cache with the given TTL.
func NewSerpAPICache(client *redis.Client, ttl time.Duration) *SerpAPICache {
	return &SerpAPICache{cache: NewCache(client), ttl: ttl}
}

// Get returns a cached SerpAPI result set for the given query, if present.
func (s *SerpAPICache) Get(ctx context.Context, engine string, params map[string]string) ([]map[string]interface{}, bool) {
	var results []map[string]interface{}
	key := SerpAPICacheKey(engine, params)
	if err := s.cache.Get(ctx, key, &results); err != nil {
		return nil, false
	}
	return results, true
}

// Set stores a SerpAPI result set under the connector's TTL.
func (s *SerpAPICache) Set(ctx context.Context, engine string, params map[string]string, results []map[string]interface{}) {
	key := SerpAPICacheKey(engine, params)
	_ = s.cache.Set(ctx, key, results, s.ttl)
}
