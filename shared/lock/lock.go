// Package lock provides keyed mutual exclusion used to serialise check-then-write sequences
// on a single resource, such as the overlap check and insert of a booking for one room.
package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"resort/config"
	"resort/infras/otel"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DriverRedis = "redis"
	DriverLocal = "local"

	keyPrefix = "lock:"
)

// ErrNotAcquired is returned when the lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives the lock back. It is safe to call more than once.
type Release func()

type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (Release, error)
}

// New picks the implementation configured in BOOKING_LOCK_DRIVER. The local driver only
// serialises callers inside one process.
func New(cfg *config.Config, client *goRedis.Client, otl otel.Otel) Locker {
	lockCfg := cfg.Booking.Lock

	if lockCfg.Driver == DriverLocal || client == nil {
		log.Info().Str("driver", DriverLocal).Msg("Booking lock initialized")

		return NewLocal()
	}

	log.Info().Str("driver", DriverRedis).Int("ttl_seconds", lockCfg.TTLSeconds).Msg("Booking lock initialized")

	return NewRedis(
		client,
		otl,
		time.Duration(lockCfg.TTLSeconds)*time.Second,
		time.Duration(lockCfg.RetryIntervalMs)*time.Millisecond,
	)
}
