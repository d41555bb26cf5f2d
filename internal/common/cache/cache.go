package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"jmap-bridge/internal/circuitbreaker"
	"jmap-bridge/internal/common/logging"
)

// maxLocalTTL bounds how long the L1 tier of a TwoTierCache keeps an entry.
const maxLocalTTL = 5 * time.Minute

// Cache stores encoded conversion results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Key derives a cache key from the conversion kind, the dialect and the raw
// request payload. Equal inputs always give equal keys.
func Key(kind, dialect string, payload []byte) string {
	d := xxhash.New()
	d.WriteString(kind)
	d.WriteString("\x00")
	d.WriteString(dialect)
	d.WriteString("\x00")
	d.Write(payload)
	return kind + ":" + dialect + ":" + strconv.FormatUint(d.Sum64(), 16)
}

// LocalCache wraps patrickmn/go-cache for in-memory caching
type LocalCache struct {
	cache *gocache.Cache
}

// NewLocalCache creates a new local cache instance
func NewLocalCache(defaultTTL, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (l *LocalCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, found := l.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

func (l *LocalCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l.cache.Set(key, value, ttl)
	return nil
}

func (l *LocalCache) Delete(ctx context.Context, key string) error {
	l.cache.Delete(key)
	return nil
}

func (l *LocalCache) Clear(ctx context.Context) error {
	l.cache.Flush()
	return nil
}

// Len reports the number of entries, expired ones included until cleanup.
func (l *LocalCache) Len() int {
	return l.cache.ItemCount()
}

// RedisCache wraps go-redis for distributed caching. Calls go through a
// circuit breaker; while it is open Get misses and Set fails at once.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	breaker   *circuitbreaker.Breaker
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		breaker:   circuitbreaker.New("redis-cache", circuitbreaker.DefaultConfig(), logging.GetGlobalLogger()),
	}
}

// Breaker exposes the circuit breaker guarding Redis.
func (r *RedisCache) Breaker() *circuitbreaker.Breaker {
	return r.breaker
}

// Get treats any Redis error as a miss.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := r.breaker.Execute(func() error {
		var err error
		val, err = r.client.Get(ctx, r.keyPrefix+key).Bytes()
		if err == redis.Nil {
			return nil
		}
		return err
	})
	if err != nil || val == nil {
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.breaker.Execute(func() error {
		return r.client.Set(ctx, r.keyPrefix+key, value, ttl).Err()
	})
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.breaker.Execute(func() error {
		return r.client.Del(ctx, r.keyPrefix+key).Err()
	})
}

// Clear removes all items with the key prefix from Redis
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}

	return nil
}

// TwoTierCache keeps hot entries in process (L1) in front of Redis (L2).
type TwoTierCache struct {
	l1 *LocalCache
	l2 *RedisCache
}

// NewTwoTierCache creates a cache with local L1 and Redis L2
func NewTwoTierCache(localTTL, cleanupInterval time.Duration, redisClient *redis.Client, keyPrefix string) *TwoTierCache {
	return &TwoTierCache{
		l1: NewLocalCache(localTTL, cleanupInterval),
		l2: NewRedisCache(redisClient, keyPrefix),
	}
}

// Get checks L1 first, then L2. L2 hits are copied into L1.
func (t *TwoTierCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := t.l1.Get(ctx, key); found {
		return val, true
	}

	if val, found := t.l2.Get(ctx, key); found {
		t.l1.Set(ctx, key, val, maxLocalTTL)
		return val, true
	}

	return nil, false
}

// Set writes L2 first; L1 is only populated once Redis accepted the entry.
func (t *TwoTierCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return t.l1.Set(ctx, key, value, localTTL(ttl))
}

func (t *TwoTierCache) Delete(ctx context.Context, key string) error {
	t.l1.Delete(ctx, key)
	return t.l2.Delete(ctx, key)
}

func (t *TwoTierCache) Clear(ctx context.Context) error {
	t.l1.Clear(ctx)
	return t.l2.Clear(ctx)
}

func localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > maxLocalTTL {
		return maxLocalTTL
	}
	return ttl
}
