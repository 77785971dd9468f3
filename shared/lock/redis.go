package lock

import (
	"context"
	"fmt"
	"time"

	"resort/infras/otel"
	"resort/shared/constant"

	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// releaseScript deletes the key only while it still carries our token, so an expired lock
// re-acquired by another holder is never released by the previous one.
var releaseScript = goRedis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *goRedis.Client
	otel   otel.Otel
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis returns a Locker backed by SET NX PX. The ttl bounds how long a crashed holder can
// block others; retry paces acquisition attempts.
func NewRedis(client *goRedis.Client, otl otel.Otel, ttl, retry time.Duration) Locker {
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	return &redisLocker{
		client: client,
		otel:   otl,
		ttl:    ttl,
		retry:  retry,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (release Release, err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Acquire")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	redisKey := keyPrefix + key
	token := uuid.NewString()
	limiter := rate.NewLimiter(rate.Every(l.retry), 1)
	attempts := 0

	for {
		attempts++

		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			log.Error().Err(err).Str("key", redisKey).Msg("failed to acquire lock")

			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if ok {
			scope.SetAttribute("lock.attempts", attempts)

			return l.releaser(ctx, redisKey, token), nil
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, err)
		}
	}
}

func (l *redisLocker) releaser(ctx context.Context, redisKey, token string) Release {
	released := false

	return func() {
		if released {
			return
		}

		released = true

		if err := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{redisKey}, token).Err(); err != nil {
			log.Error().Err(err).Str("key", redisKey).Msg("failed to release lock")
		}
	}
}
