package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sjperalta/payroll-ledger-api/internal/metrics"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
)

// StatusCache caches status counts per (category, period).
// Get returns the cache version it observed; Set stores counts under that version
// only, so counts read before an invalidation are never served after it.
type StatusCache interface {
	Get(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, string, bool)
	Set(ctx context.Context, category models.Category, period models.CutoffPeriod, version string, counts *models.StatusCounts)
	Invalidate(ctx context.Context, category models.Category, period models.CutoffPeriod)
	InvalidateCategory(ctx context.Context, category models.Category)
}

// NewStatusCache returns a Redis-backed cache, or a no-op cache when client is nil
func NewStatusCache(client *redis.Client, ttl time.Duration) StatusCache {
	if client == nil {
		return noopStatusCache{}
	}
	return &redisStatusCache{client: client, ttl: ttl}
}

// redisStatusCache keeps a generation counter per category and per period. Values are
// stored under a key that embeds both generations, and invalidation bumps a counter.
type redisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func statusCacheKey(category models.Category, period models.CutoffPeriod) string {
	return fmt.Sprintf("ledger:status:%s:%s", category, period)
}

func categoryGenerationKey(category models.Category) string {
	return fmt.Sprintf("ledger:status-gen:%s", category)
}

func periodGenerationKey(category models.Category, period models.CutoffPeriod) string {
	return fmt.Sprintf("ledger:status-gen:%s:%s", category, period)
}

func (c *redisStatusCache) version(ctx context.Context, category models.Category, period models.CutoffPeriod) (string, error) {
	vals, err := c.client.MGet(ctx, categoryGenerationKey(category), periodGenerationKey(category, period)).Result()
	if err != nil {
		return "", err
	}
	gens := make([]string, len(vals))
	for i, v := range vals {
		gens[i] = "0"
		if str, ok := v.(string); ok {
			gens[i] = str
		}
	}
	return gens[0] + "." + gens[1], nil
}

func (c *redisStatusCache) Get(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, string, bool) {
	version, err := c.version(ctx, category, period)
	if err != nil {
		logger.Warn("Status cache read failed", "error", err)
		metrics.StatusCacheLookups.WithLabelValues("miss").Inc()
		return nil, "", false
	}

	val, err := c.client.Get(ctx, statusCacheKey(category, period)+":"+version).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Status cache read failed", "error", err)
		}
		metrics.StatusCacheLookups.WithLabelValues("miss").Inc()
		return nil, version, false
	}

	var counts models.StatusCounts
	if err := json.Unmarshal([]byte(val), &counts); err != nil {
		metrics.StatusCacheLookups.WithLabelValues("miss").Inc()
		return nil, version, false
	}
	metrics.StatusCacheLookups.WithLabelValues("hit").Inc()
	return &counts, version, true
}

func (c *redisStatusCache) Set(ctx context.Context, category models.Category, period models.CutoffPeriod, version string, counts *models.StatusCounts) {
	if version == "" {
		return
	}
	payload, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statusCacheKey(category, period)+":"+version, payload, c.ttl).Err(); err != nil {
		logger.Warn("Status cache write failed", "error", err)
	}
}

func (c *redisStatusCache) Invalidate(ctx context.Context, category models.Category, period models.CutoffPeriod) {
	if err := c.client.Incr(ctx, periodGenerationKey(category, period)).Err(); err != nil {
		logger.Warn("Status cache invalidation failed", "error", err)
	}
}

// InvalidateCategory drops every cached period of the category
func (c *redisStatusCache) InvalidateCategory(ctx context.Context, category models.Category) {
	if err := c.client.Incr(ctx, categoryGenerationKey(category)).Err(); err != nil {
		logger.Warn("Status cache invalidation failed", "error", err)
	}
}

type noopStatusCache struct{}

func (noopStatusCache) Get(context.Context, models.Category, models.CutoffPeriod) (*models.StatusCounts, string, bool) {
	return nil, "", false
}

func (noopStatusCache) Set(context.Context, models.Category, models.CutoffPeriod, string, *models.StatusCounts) {
}

func (noopStatusCache) Invalidate(context.Context, models.Category, models.CutoffPeriod) {}

func (noopStatusCache) InvalidateCategory(context.Context, models.Category) {}
