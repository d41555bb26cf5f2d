// Package cache stores the encoded results of to-json conversions so that a
// client re-sending the same records with the same dialect is answered
// without re-parsing.
//
// Backends:
//   - LocalCache: github.com/patrickmn/go-cache, in process
//   - RedisCache: github.com/go-redis/redis/v8, shared between instances and
//     guarded by a circuit breaker
//   - TwoTierCache: a short-lived local L1 in front of Redis
//
// Keys come from Key, an xxhash digest of the conversion kind, the dialect
// and the raw payload:
//
//	key := cache.Key("contacts", "nextcloud", body)
//	if data, ok := c.Get(ctx, key); ok {
//		return data
//	}
//	c.Set(ctx, key, encoded, 10*time.Minute)
package cache
