package app

import (
	"strconv"

	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/redis"
)

func (app *App) initializeRedis() error {
	if !app.Config.RedisEnabled() {
		app.Logger.Info("Redis: Not configured")
		return nil
	}

	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	redisClient, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPoolSize,
	})
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.Logger.Info("Redis: Connected", logging.String("address", app.Config.RedisAddress))
	return nil
}

// initializeCache picks the cache backend: none when caching is off, a
// two-tier cache when Redis is up, process memory otherwise.
func (app *App) initializeCache() error {
	if !app.Config.CacheEnabled {
		app.Logger.Info("Cache: Disabled")
		return nil
	}

	opts := cache.Options{TTL: app.Config.CacheTTL}
	if app.RedisClient != nil {
		opts.Redis = app.RedisClient.Redis()
	}

	c, err := cache.New(opts)
	if err != nil {
		return err
	}

	app.Cache = c
	app.Logger.Info("Cache: Enabled",
		logging.String("backend", string(opts.Selected())),
		logging.Duration("ttl", opts.TTL),
	)
	return nil
}
