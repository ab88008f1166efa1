package places

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
)

const detailKeyPrefix = "places:detail:"

// DetailFetcher is satisfied by *Client and by CachedDetails.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error)
}

// CachedDetails serves detail lookups from Redis and falls through to the
// wrapped fetcher on a miss. Cache failures are logged and never surface.
type CachedDetails struct {
	next   DetailFetcher
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedDetails(next DetailFetcher, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedDetails {
	return &CachedDetails{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log,
	}
}

func DetailKey(placeID string) string {
	return detailKeyPrefix + placeID
}

func (c *CachedDetails) FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error) {
	key := DetailKey(placeID)

	raw, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var detail PlaceDetail
		if jsonErr := json.Unmarshal([]byte(raw), &detail); jsonErr == nil {
			metrics.PlacesCacheLookups.WithLabelValues("hit").Inc()
			return &detail, nil
		}
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("detail cache read failed", map[string]interface{}{"key": key, "error": err})
	}
	metrics.PlacesCacheLookups.WithLabelValues("miss").Inc()

	detail, err := c.next.FetchDetail(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(detail); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("detail cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return detail, nil
}
