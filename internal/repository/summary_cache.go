package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertdesk/availability/internal/model"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// SummaryCache stores summarizer output in Redis. Keys carry the per-expert
// version, so Bump on any mutation orphans stale entries and the TTL reaps them.
type SummaryCache struct {
	client *redis.Client
}

func NewSummaryCache(client *redis.Client) *SummaryCache {
	return &SummaryCache{client: client}
}

func (c *SummaryCache) Get(ctx context.Context, key string) ([]model.Date, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var dates []model.Date
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return dates, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, key string, dates []model.Date, ttl time.Duration) error {
	data, err := json.Marshal(dates)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *SummaryCache) Version(ctx context.Context, expertID int64) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(expertID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return version, nil
}

func (c *SummaryCache) Bump(ctx context.Context, expertID int64) error {
	if err := c.client.Incr(ctx, versionKey(expertID)).Err(); err != nil {
		return fmt.Errorf("cache bump: %w", err)
	}
	return nil
}

func versionKey(expertID int64) string {
	return fmt.Sprintf("availability:version:%d", expertID)
}
