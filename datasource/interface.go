package datasource

import (
	"context"

	"cityweather/models"
)

// WeatherSource defines the interface for any current-weather provider
type WeatherSource interface {
	// FetchWeather fetches current weather for a city
	FetchWeather(ctx context.Context, city string) (models.WeatherReading, error)

	// Name returns the provider's name
	Name() string
}

// TimezoneSource is the transport behind the two-step local time lookup
type TimezoneSource interface {
	// LookupTimezone resolves a free-text city name to a timezone identifier
	LookupTimezone(ctx context.Context, city string) (models.TimezoneID, error)

	// LookupTime fetches the current UTC datetime and offset for a timezone identifier
	LookupTime(ctx context.Context, id models.TimezoneID) (models.WorldTime, error)

	// Name returns the source's name
	Name() string
}
