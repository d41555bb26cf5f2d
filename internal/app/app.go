package app

import (
	"jmap-bridge/internal/auth"
	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/config"
	"jmap-bridge/internal/ratelimit"
	"jmap-bridge/internal/redis"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Auth        *auth.Auth
	Cache       cache.Cache
	Limiter     ratelimit.Limiter
	RedisClient *redis.Client
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, cache and rate limits fall back to process memory
		app.Logger.Warn("Redis initialization failed, continuing without Redis", logging.Err(err))
	}

	if err := app.initializeCache(); err != nil {
		return nil, err
	}

	if err := app.initializeRateLimit(); err != nil {
		return nil, err
	}

	app.initializeAuth()

	return app, nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
