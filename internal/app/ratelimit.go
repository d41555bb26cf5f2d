package app

import (
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/ratelimit"
)

const rateLimitKeyPrefix = "jmap-bridge:ratelimit:"

// initializeRateLimit shares counts through Redis when it is connected and
// keeps them per process otherwise.
func (app *App) initializeRateLimit() error {
	if !app.Config.RateLimitEnabled {
		app.Logger.Info("Rate limiting: Disabled")
		return nil
	}

	cfg := ratelimit.Config{
		Requests: app.Config.RateLimitRequests,
		Window:   app.Config.RateLimitWindow,
	}

	backend := "local"
	if app.RedisClient != nil {
		limiter, err := ratelimit.NewRedisLimiter(app.RedisClient, cfg, rateLimitKeyPrefix)
		if err != nil {
			return err
		}
		app.Limiter = limiter
		backend = "redis"
	} else {
		limiter, err := ratelimit.NewLocalLimiter(cfg)
		if err != nil {
			return err
		}
		app.Limiter = limiter
	}

	app.Logger.Info("Rate limiting: Enabled",
		logging.String("backend", backend),
		logging.Int("requests", cfg.Requests),
		logging.Duration("window", cfg.Window),
	)
	return nil
}
