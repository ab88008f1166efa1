// Package app assembles the services shared by the worker manager and the
// batch CLI from a loaded configuration.
package app

import (
	"github.com/redis/go-redis/v9"

	"places-workers/internal/batch"
	"places-workers/internal/common/config"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/places"
	"places-workers/internal/tours"
)

func PlacesConfig(cfg *config.Config) places.Config {
	return places.Config{
		BaseURL:        cfg.Places.BaseURL,
		APIKey:         cfg.Places.APIKey,
		Timeout:        config.GetDuration(cfg.Places.Timeout),
		PageTokenDelay: config.GetDuration(cfg.Places.PageTokenDelay),
		PhotoMaxWidth:  cfg.Places.PhotoMaxWidth,
	}
}

// DetailFetcher wraps client with the Redis detail cache when rdb is set.
func DetailFetcher(cfg *config.Config, client *places.Client, rdb *redis.Client, log logger.Logger) places.DetailFetcher {
	if rdb == nil {
		return client
	}
	ttl := config.GetDuration(cfg.Database.Redis.CacheTTL * 1000)
	return places.NewCachedDetails(client, rdb, ttl, log)
}

func ToursService(cfg *config.Config, client *places.Client, rdb *redis.Client, log logger.Logger) *tours.Service {
	return tours.NewService(
		client,
		DetailFetcher(cfg, client, rdb, log),
		tours.NewKeywordLog(cfg.Tours.KeywordLogPath),
		tours.Options{DetailConcurrency: cfg.Tours.DetailConcurrency},
		log,
	)
}

func Pacer(cfg *config.Config) (batch.Pacer, error) {
	return batch.NewPacer(cfg.Batch.Pacing, config.GetDuration(cfg.Batch.Interval))
}
