// Package config loads application settings from an optional JSON file, a .env file
// and environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cityweather/datasource"
)

// Duration is a time.Duration that reads "90s" style strings from JSON
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// OpenWeatherMapConfig configures the weather API client
type OpenWeatherMapConfig struct {
	APIKey   string   `json:"apiKey"`
	Endpoint string   `json:"endpoint"`
	Units    string   `json:"units"`
	Timeout  Duration `json:"timeout"`
}

// WorldTimeConfig configures the time API client
type WorldTimeConfig struct {
	Endpoint string   `json:"endpoint"`
	Timeout  Duration `json:"timeout"`
}

// RateLimitConfig holds token bucket settings for both upstream APIs
type RateLimitConfig struct {
	Enabled    bool    `json:"enabled"`
	WeatherRPS float64 `json:"weatherRps"`
	TimeRPS    float64 `json:"timeRps"`
	Burst      int     `json:"burst"`
}

type Config struct {
	AppEnv   string     `json:"-"`
	LogLevel slog.Level `json:"-"`
	HTTPAddr string     `json:"httpAddr"`

	OpenWeatherMap OpenWeatherMapConfig `json:"openWeatherMap"`
	WorldTime      WorldTimeConfig      `json:"worldTime"`

	// CitiesFile replaces the built-in city list when set
	CitiesFile string `json:"citiesFile"`
	// CacheTTL enables the weather and timezone caches when positive; every submit
	// fetches fresh data by default
	CacheTTL        Duration        `json:"cacheTTL"`
	RefreshInterval Duration        `json:"refreshInterval"`
	RateLimit       RateLimitConfig `json:"rateLimit"`
}

// DefaultConfig returns the settings used when nothing overrides them
func DefaultConfig() Config {
	return Config{
		AppEnv:   "dev",
		LogLevel: slog.LevelInfo,
		HTTPAddr: ":8080",
		OpenWeatherMap: OpenWeatherMapConfig{
			Endpoint: datasource.DefaultOpenWeatherMapEndpoint,
			Units:    datasource.DefaultUnits,
			Timeout:  Duration(10 * time.Second),
		},
		WorldTime: WorldTimeConfig{
			Endpoint: datasource.DefaultWorldTimeEndpoint,
			Timeout:  Duration(10 * time.Second),
		},
		// OpenWeatherMap free tier allows 60 calls/minute
		RateLimit: RateLimitConfig{
			Enabled:    true,
			WeatherRPS: 1,
			TimeRPS:    2,
			Burst:      5,
		},
	}
}

// Load builds the configuration. A missing .env file is skipped; path may be empty
// to skip the JSON file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes the JSON file over the defaults
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup("APP_ENV"); ok {
		cfg.AppEnv = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := lookup("OWM_API_KEY"); ok {
		cfg.OpenWeatherMap.APIKey = v
	}
	if v, ok := lookup("OWM_ENDPOINT"); ok {
		cfg.OpenWeatherMap.Endpoint = v
	}
	if v, ok := lookup("OWM_UNITS"); ok {
		cfg.OpenWeatherMap.Units = v
	}
	if v, ok := lookup("TIME_API_ENDPOINT"); ok {
		cfg.WorldTime.Endpoint = v
	}
	if v, ok := lookup("CITIES_FILE"); ok {
		cfg.CitiesFile = v
	}
	if v, ok := lookup("CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = Duration(d)
	}
	if v, ok := lookup("REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REFRESH_INTERVAL %q: %w", v, err)
		}
		cfg.RefreshInterval = Duration(d)
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q (allowed: true, false)", v)
		}
		cfg.RateLimit.Enabled = enabled
	}
	return nil
}

// lookup returns a trimmed, non-empty environment value
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// Validate checks values that would otherwise fail later at first use
func (c Config) Validate() error {
	switch c.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", c.AppEnv)
	}
	switch c.OpenWeatherMap.Units {
	case "standard", "metric", "imperial":
	default:
		return fmt.Errorf("invalid OWM_UNITS %q (allowed: standard, metric, imperial)", c.OpenWeatherMap.Units)
	}
	if c.OpenWeatherMap.Endpoint == "" {
		return errors.New("OWM_ENDPOINT must not be empty")
	}
	if c.WorldTime.Endpoint == "" {
		return errors.New("TIME_API_ENDPOINT must not be empty")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CACHE_TTL %s (must not be negative)", time.Duration(c.CacheTTL))
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("invalid REFRESH_INTERVAL %s (must not be negative)", time.Duration(c.RefreshInterval))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.WeatherRPS <= 0 || c.RateLimit.TimeRPS <= 0 {
			return errors.New("rate limits must be positive when rate limiting is enabled")
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("invalid rate limit burst %d (must be at least 1)", c.RateLimit.Burst)
		}
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
