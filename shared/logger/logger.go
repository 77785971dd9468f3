package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"resort/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const envProduction = "production"

// InitLogger installs a human readable console logger at trace level. It runs before
// config is loaded so that config errors are visible.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

// Configure applies the configured level and, in production, switches to JSON lines
// tagged with the app name.
func Configure(cfg *config.Config) {
	Setup(os.Stdout, cfg)
}

func Setup(out io.Writer, cfg *config.Config) {
	if strings.EqualFold(cfg.Server.Env, envProduction) {
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = zerolog.New(out).With().Timestamp().Str("app", cfg.App.Name).Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Server.LogLevel))

	log.Debug().Str("level", zerolog.GlobalLevel().String()).Str("env", cfg.Server.Env).Msg("logger configured")
}

// ParseLevel maps LOG_LEVEL to a zerolog level. Unknown or empty values mean info.
func ParseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || raw == "" {
		return zerolog.InfoLevel
	}

	return level
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}
