package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripwise/tripwise/internal/amadeus"
)

// DefaultTTL keeps search results long enough to page through them, short
// enough that prices shown are reasonably fresh.
const DefaultTTL = 15 * time.Minute

// OfferCache wraps a Redis client and stores offer search results per route and dates.
type OfferCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOfferCache constructs an OfferCache. A non-positive ttl selects DefaultTTL.
func NewOfferCache(client *redis.Client, ttl time.Duration) *OfferCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OfferCache{client: client, ttl: ttl}
}

// key returns the Redis key for the given search.
func key(q amadeus.Query) string {
	parts := []string{q.Origin, q.Destination, q.DepartureDate, q.ReturnDate}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "offers:" + strings.Join(parts, ":")
}

// Get retrieves search results from cache.
// Returns nil, nil on a cache miss (not an error).
func (c *OfferCache) Get(ctx context.Context, q amadeus.Query) (*amadeus.Results, error) {
	val, err := c.client.Get(ctx, key(q)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %s: %w", key(q), err)
	}

	var res amadeus.Results
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("unmarshaling cached offers for %s: %w", key(q), err)
	}

	return &res, nil
}

// Set stores search results with the configured TTL.
func (c *OfferCache) Set(ctx context.Context, q amadeus.Query, res *amadeus.Results) error {
	if res == nil {
		return nil
	}

	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling offers for %s: %w", key(q), err)
	}

	if err := c.client.Set(ctx, key(q), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", key(q), err)
	}

	return nil
}

// Delete removes the cached results for the given search.
func (c *OfferCache) Delete(ctx context.Context, q amadeus.Query) error {
	if err := c.client.Del(ctx, key(q)).Err(); err != nil {
		return fmt.Errorf("cache delete for %s: %w", key(q), err)
	}
	return nil
}
