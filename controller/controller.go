// Package controller owns the user-facing state and routes user events (typing,
// picking a suggestion, submitting a city) to the weather, time and autocomplete code.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cityweather/autocomplete"
	"cityweather/datasource"
	"cityweather/models"
)

// WeatherErrorMessage is shown in place of a reading when the weather fetch fails
const WeatherErrorMessage = "unable to fetch weather data"

// ErrEmptyCity is returned by OnSubmit for blank input; nothing is fetched.
var ErrEmptyCity = errors.New("city name is empty")

// TimeResolver resolves a city's local time without failing
type TimeResolver interface {
	ResolveLocalTime(ctx context.Context, city string) models.LocalDateTime
}

// State is what a renderer needs to draw the screen
type State struct {
	Query              string                 `json:"query"`
	Suggestions        []string               `json:"suggestions"`
	SuggestionsVisible bool                   `json:"suggestionsVisible"`
	City               string                 `json:"city,omitempty"`
	Weather            *models.WeatherReading `json:"weather,omitempty"`
	WeatherError       string                 `json:"weatherError,omitempty"`
	LocalTime          *models.LocalDateTime  `json:"localTime,omitempty"`
	LocalTimeLabel     string                 `json:"localTimeLabel,omitempty"`
	UpdatedAt          time.Time              `json:"updatedAt,omitempty"`
}

// clone copies the slice and pointers so callers cannot reach internal state
func (s State) clone() State {
	out := s
	out.Suggestions = append([]string{}, s.Suggestions...)
	if s.Weather != nil {
		w := *s.Weather
		out.Weather = &w
	}
	if s.LocalTime != nil {
		lt := *s.LocalTime
		out.LocalTime = &lt
	}
	return out
}

// Controller serializes updates to State. Fetches run outside the lock.
type Controller struct {
	weather  datasource.WeatherSource
	resolver TimeResolver
	dir      autocomplete.Directory
	logger   *slog.Logger

	mu    sync.RWMutex
	state State
	// submitSeq numbers submits; only the newest may write results
	submitSeq uint64
}

// New creates a controller. A nil logger uses slog.Default().
func New(weather datasource.WeatherSource, resolver TimeResolver, dir autocomplete.Directory, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		weather:  weather,
		resolver: resolver,
		dir:      dir,
		logger:   logger,
		state:    State{Suggestions: []string{}},
	}
}

// OnQueryChanged stores the text typed so far and recomputes suggestions
func (c *Controller) OnQueryChanged(text string) State {
	suggestions := autocomplete.FilterCities(text, c.dir)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = text
	c.state.Suggestions = suggestions
	c.state.SuggestionsVisible = len(suggestions) > 0
	return c.state.clone()
}

// SelectSuggestion replaces the query with the chosen city and hides the list
func (c *Controller) SelectSuggestion(city string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = city
	c.state.SuggestionsVisible = false
	return c.state.clone()
}

// OnSubmit fetches weather and local time for city concurrently and replaces the
// displayed results. The returned error is the weather failure, if any; local time
// never fails. A submit overtaken by a newer one discards its results and returns
// the current state.
func (c *Controller) OnSubmit(ctx context.Context, city string) (State, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return c.State(), ErrEmptyCity
	}

	c.mu.Lock()
	c.submitSeq++
	seq := c.submitSeq
	c.mu.Unlock()

	var (
		wg         sync.WaitGroup
		reading    models.WeatherReading
		weatherErr error
		localTime  models.LocalDateTime
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reading, weatherErr = c.weather.FetchWeather(ctx, city)
	}()
	go func() {
		defer wg.Done()
		localTime = c.resolver.ResolveLocalTime(ctx, city)
	}()
	wg.Wait()

	if weatherErr != nil {
		c.logger.Error("weather fetch failed",
			"city", city,
			"source", c.weather.Name(),
			"kind", datasource.ErrorKind(weatherErr),
			"error", weatherErr,
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.submitSeq {
		c.logger.Debug("discarding superseded submit", "city", city)
		return c.state.clone(), nil
	}

	c.state.City = city
	if weatherErr != nil {
		c.state.Weather = nil
		c.state.WeatherError = WeatherErrorMessage
	} else {
		c.state.Weather = &reading
		c.state.WeatherError = ""
	}
	c.state.LocalTime = &localTime
	c.state.LocalTimeLabel = localTime.Format()
	c.state.UpdatedAt = time.Now().UTC()

	if weatherErr != nil {
		return c.state.clone(), fmt.Errorf("fetch weather for %s: %w", city, weatherErr)
	}
	return c.state.clone(), nil
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// LastCity returns the most recently submitted city, or "" if none
func (c *Controller) LastCity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.City
}
