package postgres

//nolint:revive
import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"resort/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const driverName = "postgres"

// Connection splits reads (searches, listings) from writes (bookings, overrides).
// Both may point at the same server.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) *Connection {
	return &Connection{
		Read:  Open(cfg, "read", cfg.DB.Postgres.Read),
		Write: Open(cfg, "write", cfg.DB.Postgres.Write),
	}
}

// Close releases both pools. Pools that never connected are skipped.
func (c *Connection) Close() error {
	if c.Read != nil {
		if err := c.Read.Close(); err != nil {
			return fmt.Errorf("failed to close read pool: %w", err)
		}
	}

	if c.Write != nil {
		if err := c.Write.Close(); err != nil {
			return fmt.Errorf("failed to close write pool: %w", err)
		}
	}

	return nil
}

// DatabaseName applies DB_POSTGRES_PREFIX, used to isolate preview deployments.
func DatabaseName(cfg *config.Config, base string) string {
	return cfg.DB.Postgres.Prefix + base
}

// DSN renders a postgres:// URL with escaped credentials. Extra query parameters are
// appended after sslmode.
func DSN(endpoint config.PostgresEndpoint, dbName string, extra url.Values) string {
	query := url.Values{}
	query.Set("sslmode", endpoint.SSLMode)

	if endpoint.Timezone != "" {
		query.Set("timezone", endpoint.Timezone)
	}

	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(endpoint.Username, endpoint.Password),
		Host:     net.JoinHostPort(endpoint.Host, endpoint.Port),
		Path:     "/" + dbName,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Open connects to one endpoint, retrying up to DB_POSTGRES_MAX_RETRY times. It returns nil
// when every attempt fails so the caller decides whether that is fatal.
func Open(cfg *config.Config, name string, endpoint config.PostgresEndpoint) *sqlx.DB {
	pg := cfg.DB.Postgres
	dbName := DatabaseName(cfg, endpoint.Name)
	dsn := DSN(endpoint, dbName, nil)
	wait := time.Duration(pg.RetryWaitTime) * time.Second

	logger := log.With().Str("pool", name).Str("host", endpoint.Host).Str("db", dbName).Logger()

	for attempt := 1; attempt <= max(pg.MaxRetry, 1); attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), wait+5*time.Second)
		db, err := sqlx.ConnectContext(ctx, driverName, dsn)

		cancel()

		if err == nil {
			db.SetMaxOpenConns(pg.MaxOpenConns)
			db.SetMaxIdleConns(min(pg.MaxIdleConns, pg.MaxOpenConns))
			db.SetConnMaxLifetime(time.Duration(pg.ConnMaxLifetimeMin) * time.Minute)

			logger.Info().Int("attempt", attempt).Msg("connected to database")

			return db
		}

		logger.Error().Err(err).Int("attempt", attempt).Msg("failed connecting to database")

		time.Sleep(wait)
	}

	return nil
}
