package timezone

import (
	"fmt"
	"sync"
	"time"

	"resort/config"

	"github.com/rs/zerolog/log"
)

const defaultZone = "UTC"

var (
	once     sync.Once
	location *time.Location
)

// Load resolves an IANA zone name. An empty name means UTC.
func Load(name string) (*time.Location, error) {
	if name == "" {
		name = defaultZone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}

	return loc, nil
}

func resolve() {
	name := config.Get().App.Timezone

	loc, err := Load(name)
	if err != nil {
		log.Error().Err(err).Str("timezone", name).Msg("falling back to UTC")

		loc = time.UTC
	}

	location = loc

	log.Debug().Str("timezone", loc.String()).Msg("resort timezone resolved")
}

// GetLocation returns the resort's zone, resolved from APP_TIMEZONE on first use.
func GetLocation() *time.Location {
	once.Do(resolve)

	return location
}

func Now() time.Time {
	return time.Now().In(GetLocation())
}

func ToAppTime(t time.Time) time.Time {
	return t.In(GetLocation())
}

// Parse reads value with layout, treating zone-less input as resort local time.
func Parse(layout, value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(layout, value, GetLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", value, err)
	}

	return parsed, nil
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}
