package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

type estimateCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewEstimateCache creates a Redis-backed effort-estimate cache. Entries
// expire so stale estimates eventually get recomputed against fresh course
// content.
func NewEstimateCache(client *redislib.Client, ttl time.Duration) repository.EstimateCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &estimateCache{
		client: client,
		prefix: "estimate:",
		ttl:    ttl,
	}
}

func (c *estimateCache) Get(ctx context.Context, userID string, deadlineID int64) (*domain.Estimate, error) {
	result, err := c.client.Get(ctx, c.key(userID, deadlineID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	var estimate domain.Estimate
	if err := json.Unmarshal([]byte(result), &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (c *estimateCache) Put(ctx context.Context, userID string, deadlineID int64, estimate *domain.Estimate) error {
	if estimate == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(estimate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID, deadlineID), payload, c.ttl).Err()
}

func (c *estimateCache) Invalidate(ctx context.Context, userID string, deadlineID int64) error {
	return c.client.Del(ctx, c.key(userID, deadlineID)).Err()
}

func (c *estimateCache) key(userID string, deadlineID int64) string {
	return fmt.Sprintf("%s%s:%d", c.prefix, userID, deadlineID)
}
