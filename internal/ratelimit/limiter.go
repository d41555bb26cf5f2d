// Package ratelimit throttles conversion requests per client. A LocalLimiter
// keeps token buckets in process; a RedisLimiter shares a fixed-window count
// across instances through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"jmap-bridge/internal/circuitbreaker"
	"jmap-bridge/internal/common/logging"
)

// Config sets how many requests a client may make per window.
type Config struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
	// CleanupPeriod drops idle local buckets. Defaults to 10 windows.
	CleanupPeriod time.Duration `json:"cleanup_period,omitempty"`
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", c.Requests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %v", c.Window)
	}
	return nil
}

// Decision is the outcome of one request against a limit.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client behind key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// LocalLimiter keeps one token bucket per key. Each bucket holds Requests
// tokens and refills one every Window/Requests.
type LocalLimiter struct {
	mu          sync.Mutex
	config      Config
	limiters    map[string]*limiterEntry
	lastCleanup time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLocalLimiter creates a limiter using golang.org/x/time/rate.
func NewLocalLimiter(config Config) (*LocalLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.CleanupPeriod <= 0 {
		config.CleanupPeriod = 10 * config.Window
	}
	return &LocalLimiter{
		config:      config,
		limiters:    make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
	}, nil
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	limiter := l.limiterFor(key)

	decision := Decision{Limit: l.config.Requests}
	r := limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		decision.RetryAfter = delay
		return decision, nil
	}

	decision.Allowed = true
	if tokens := int(limiter.Tokens()); tokens > 0 {
		decision.Remaining = tokens
	}
	return decision, nil
}

// Len reports the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LocalLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > l.config.CleanupPeriod {
		l.cleanup(now)
	}

	entry, ok := l.limiters[key]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Requests)
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), l.config.Requests)}
		l.limiters[key] = entry
	}
	entry.lastUsed = now
	return entry.limiter
}

func (l *LocalLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-l.config.CleanupPeriod)
	for key, entry := range l.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
	l.lastCleanup = now
}

// Counter is the Redis operation RedisLimiter needs.
type Counter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// RedisLimiter counts requests per fixed window in Redis so every instance
// sees the same totals.
type RedisLimiter struct {
	counter Counter
	config  Config
	prefix  string
	breaker *circuitbreaker.Breaker
	now     func() time.Time
}

// NewRedisLimiter creates a limiter whose keys start with prefix.
func NewRedisLimiter(counter Counter, config Config, prefix string) (*RedisLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{
		counter: counter,
		config:  config,
		prefix:  prefix,
		breaker: circuitbreaker.New("redis-ratelimit", circuitbreaker.DefaultConfig(), logging.GetGlobalLogger()),
		now:     time.Now,
	}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	var (
		allowed bool
		count   int
	)
	err := l.breaker.Execute(func() error {
		var err error
		allowed, count, err = l.counter.CheckRateLimit(ctx, l.prefix+key, l.config.Requests, l.config.Window)
		return err
	})
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{Allowed: allowed, Limit: l.config.Requests}
	if remaining := l.config.Requests - count; remaining > 0 {
		decision.Remaining = remaining
	}
	if !allowed {
		window := l.config.Window
		decision.RetryAfter = window - time.Duration(l.now().UnixNano()%int64(window))
	}
	return decision, nil
}
