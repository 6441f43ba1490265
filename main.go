package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cityweather/api"
	"cityweather/autocomplete"
	"cityweather/cache"
	"cityweather/config"
	"cityweather/controller"
	"cityweather/datasource"
	"cityweather/logging"
	"cityweather/timeresolver"
)

const appName = "cityweather"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "Path to JSON configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable API rate limiting")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	// only an explicit flag wins over the file and environment
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "rate-limit" {
			cfg.RateLimit.Enabled = *enableRateLimiting
		}
	})

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	dir := autocomplete.DefaultDirectory()
	if cfg.CitiesFile != "" {
		dir, err = autocomplete.LoadDirectory(cfg.CitiesFile)
		if err != nil {
			return err
		}
	}
	logger.Info("city directory loaded", "cities", dir.Len(), "file", cfg.CitiesFile)

	if cfg.OpenWeatherMap.APIKey == "" {
		logger.Warn("no OpenWeatherMap API key configured; weather requests will be rejected")
	}

	weather, timezones := buildSources(cfg, logger)
	resolver := timeresolver.NewResolver(timezones, logger)
	ctrl := controller.New(weather, resolver, dir, logger)
	server := api.NewServer(ctrl, weather, resolver, dir, cfg.HTTPAddr, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval := time.Duration(cfg.RefreshInterval); interval > 0 {
		stopRefresh := controller.NewRefresher(ctrl, interval, logger).Start(ctx)
		defer stopRefresh()
		logger.Info("auto refresh enabled", "interval", interval)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// buildSources layers rate limiting under caching so cache hits never wait for a token
func buildSources(cfg config.Config, logger *slog.Logger) (datasource.WeatherSource, datasource.TimezoneSource) {
	var weather datasource.WeatherSource = datasource.NewOpenWeatherMapSource(
		cfg.OpenWeatherMap.APIKey,
		cfg.OpenWeatherMap.Endpoint,
		cfg.OpenWeatherMap.Units,
		time.Duration(cfg.OpenWeatherMap.Timeout),
	)
	var timezones datasource.TimezoneSource = datasource.NewWorldTimeSource(
		cfg.WorldTime.Endpoint,
		time.Duration(cfg.WorldTime.Timeout),
		logger,
	)

	if cfg.RateLimit.Enabled {
		weather = datasource.NewRateLimitedWeatherSource(weather, cfg.RateLimit.WeatherRPS, cfg.RateLimit.Burst)
		timezones = datasource.NewRateLimitedTimezoneSource(timezones, cfg.RateLimit.TimeRPS, cfg.RateLimit.Burst)
		logger.Info("applied rate limiting",
			"weather_rps", cfg.RateLimit.WeatherRPS,
			"time_rps", cfg.RateLimit.TimeRPS,
			"burst", cfg.RateLimit.Burst,
		)
	}

	if ttl := time.Duration(cfg.CacheTTL); ttl > 0 {
		weather = cache.NewCachedWeatherSource(weather, ttl, logger)
		timezones = cache.NewCachedTimezoneSource(timezones, ttl, logger)
		logger.Info("applied caching", "ttl", ttl)
	}

	logger.Info("sources ready", "weather", weather.Name(), "time", timezones.Name())
	return weather, timezones
}
