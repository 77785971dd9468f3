package cache

import (
	"context"

	"github.com/rs/zerolog/log"
)

const wildcard = "*"

// Remember returns the cached value at key or runs load and stores its result for the
// given number of seconds before returning it. Cache failures only cost a reload; load
// errors are returned unchanged and never cached. The store happens before the caller
// moves on, so an Evict issued after this call returns always wins over it.
func Remember[T any](ctx context.Context, c RedisCache, key string, seconds int, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		log.Debug().Str("cache_key", key).Msg("cache hit")

		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err = c.Save(context.WithoutCancel(ctx), key, value, seconds); err != nil {
		log.Warn().Err(err).Str("cache_key", key).Msg("failed to populate cache")
	}

	return value, nil
}

// Evict drops the exact keys and every key under the prefixes. It runs in the background
// and only logs failures; stale entries expire with their TTL.
func Evict(ctx context.Context, c RedisCache, keys []string, prefixes ...string) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		for _, key := range keys {
			if err := c.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("cache_key", key).Msg("failed to evict cache entry")
			}
		}

		for _, prefix := range prefixes {
			if err := c.Clear(ctx, prefix+wildcard); err != nil {
				log.Warn().Err(err).Str("prefix", prefix).Msg("failed to evict cache prefix")
			}
		}
	}()
}
