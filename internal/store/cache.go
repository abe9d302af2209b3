package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resultsKeyPrefix = "assessment:results:"
	routeKeyPrefix   = "assessment:route:"
)

// Cache keeps rendered results payloads and routing decisions in Redis.
// Reads that fail are treated as misses.
type Cache struct {
	client     redis.Cmdable
	resultsTTL time.Duration
	routeTTL   time.Duration
}

func NewCache(client redis.Cmdable, resultsTTL, routeTTL time.Duration) *Cache {
	return &Cache{client: client, resultsTTL: resultsTTL, routeTTL: routeTTL}
}

func (c *Cache) GetResults(ctx context.Context, id string) ([]byte, bool) {
	b, err := c.client.Get(ctx, resultsKeyPrefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *Cache) SetResults(ctx context.Context, id string, payload []byte) error {
	return c.client.Set(ctx, resultsKeyPrefix+id, payload, c.resultsTTL).Err()
}

// Invalidate drops every cached entry for the assessment.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, resultsKeyPrefix+id, routeKeyPrefix+id).Err()
}

func (c *Cache) GetRoute(ctx context.Context, id string) (string, bool) {
	v, err := c.client.Get(ctx, routeKeyPrefix+id).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *Cache) SetRoute(ctx context.Context, id, mode string) error {
	return c.client.Set(ctx, routeKeyPrefix+id, mode, c.routeTTL).Err()
}
