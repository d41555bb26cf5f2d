package cache

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Backend names a cache implementation.
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendRedis   Backend = "redis"
	BackendTwoTier Backend = "two_tier"
)

// DefaultPrefix namespaces conversion results in a shared Redis.
const DefaultPrefix = "jmap-bridge:conv:"

// Options configures New. With Backend unset the cache is two-tier when a
// Redis client is given and in memory otherwise.
type Options struct {
	Backend Backend
	// TTL is how long a converted record stays cached.
	TTL time.Duration
	// Cleanup is how often the in-memory tier sweeps expired results.
	// Defaults to the local TTL bound.
	Cleanup time.Duration
	Prefix  string
	Redis   *redis.Client
}

// Selected reports the backend New builds for these options.
func (o Options) Selected() Backend {
	switch {
	case o.Backend != "":
		return o.Backend
	case o.Redis != nil:
		return BackendTwoTier
	default:
		return BackendMemory
	}
}

// Validate rejects options New cannot build a cache from.
func (o Options) Validate() error {
	if o.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", o.TTL)
	}
	switch b := o.Selected(); b {
	case BackendMemory:
	case BackendRedis, BackendTwoTier:
		if o.Redis == nil {
			return fmt.Errorf("%s cache requires a redis client", b)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", b)
	}
	return nil
}

// New builds the cache for opts. Results are keyed with Key, so every
// backend sees the same kind/dialect/payload keys.
func New(opts Options) (Cache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Cleanup <= 0 {
		opts.Cleanup = maxLocalTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	switch opts.Selected() {
	case BackendRedis:
		return NewRedisCache(opts.Redis, opts.Prefix), nil
	case BackendTwoTier:
		return NewTwoTierCache(localTTL(opts.TTL), opts.Cleanup, opts.Redis, opts.Prefix), nil
	default:
		return NewLocalCache(opts.TTL, opts.Cleanup), nil
	}
}
