package datasource

import (
	"context"
	"fmt"

	"cityweather/models"

	"golang.org/x/time/rate"
)

// RateLimitedWeatherSource wraps a WeatherSource with rate limiting
type RateLimitedWeatherSource struct {
	source  WeatherSource
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedWeatherSource creates a new rate limited weather source
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedWeatherSource(source WeatherSource, rps float64, burst int) *RateLimitedWeatherSource {
	return &RateLimitedWeatherSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
	}
}

// FetchWeather fetches weather data, respecting rate limits
func (r *RateLimitedWeatherSource) FetchWeather(ctx context.Context, city string) (models.WeatherReading, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return models.WeatherReading{}, &NetworkError{Op: "rate limit wait", Err: err}
	}

	return r.source.FetchWeather(ctx, city)
}

// Name returns the source name
func (r *RateLimitedWeatherSource) Name() string {
	return r.name
}

// RateLimitedTimezoneSource wraps a TimezoneSource with one limiter shared by both
// lookups, since they hit the same upstream.
type RateLimitedTimezoneSource struct {
	source  TimezoneSource
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedTimezoneSource creates a new rate limited timezone source
func NewRateLimitedTimezoneSource(source TimezoneSource, rps float64, burst int) *RateLimitedTimezoneSource {
	return &RateLimitedTimezoneSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
	}
}

// LookupTimezone implements TimezoneSource with rate limiting
func (r *RateLimitedTimezoneSource) LookupTimezone(ctx context.Context, city string) (models.TimezoneID, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &NetworkError{Op: "rate limit wait", Err: err}
	}
	return r.source.LookupTimezone(ctx, city)
}

// LookupTime implements TimezoneSource with rate limiting
func (r *RateLimitedTimezoneSource) LookupTime(ctx context.Context, id models.TimezoneID) (models.WorldTime, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return models.WorldTime{}, &NetworkError{Op: "rate limit wait", Err: err}
	}
	return r.source.LookupTime(ctx, id)
}

// Name returns the source name
func (r *RateLimitedTimezoneSource) Name() string {
	return r.name
}

// Verify that our wrappers and sources implement the required interfaces
var (
	_ WeatherSource  = (*OpenWeatherMapSource)(nil)
	_ WeatherSource  = (*RateLimitedWeatherSource)(nil)
	_ TimezoneSource = (*WorldTimeSource)(nil)
	_ TimezoneSource = (*RateLimitedTimezoneSource)(nil)
)
