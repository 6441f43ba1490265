// Package timeresolver turns a free-text city name into a local date and time using a
// two-step lookup: city to timezone identifier, then identifier to UTC instant and
// offset. Any failure degrades to the current UTC instant; callers never see an error.
package timeresolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cityweather/datasource"
	"cityweather/models"
)

// Clock abstracts time.Now so fallbacks can be tested
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Status tags how a Resolution was produced
type Status int

const (
	StatusResolved Status = iota
	StatusFallback
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Step names the lookup stage a fallback happened in
type Step string

const (
	StepResolveTimezone   Step = "resolve_timezone"
	StepResolveOffsetTime Step = "resolve_offset_time"
)

var errEmptyCity = errors.New("empty city name")

// Resolution is the internal result of a lookup. Step and Err are set only for
// fallbacks.
type Resolution struct {
	Status Status
	Time   models.LocalDateTime
	Step   Step
	Err    error
}

// Resolver resolves local time for cities through a TimezoneSource
type Resolver struct {
	source datasource.TimezoneSource
	clock  Clock
	logger *slog.Logger
}

// NewResolver creates a resolver using the system clock
func NewResolver(source datasource.TimezoneSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source: source,
		clock:  RealClock{},
		logger: logger,
	}
}

// SetClock replaces the clock used for fallback values
func (r *Resolver) SetClock(clock Clock) {
	r.clock = clock
}

// ResolveLocalTime returns the local date and time for city, or the current UTC
// instant with zero offset when any step fails.
func (r *Resolver) ResolveLocalTime(ctx context.Context, city string) models.LocalDateTime {
	return r.Resolve(ctx, city).Time
}

// Resolve runs both lookup steps and reports whether the result is resolved or a
// fallback.
func (r *Resolver) Resolve(ctx context.Context, city string) Resolution {
	city = strings.TrimSpace(city)
	if city == "" {
		return r.fallback(city, StepResolveTimezone, errEmptyCity)
	}

	id, err := r.source.LookupTimezone(ctx, city)
	if err != nil {
		return r.fallback(city, StepResolveTimezone, err)
	}

	wt, err := r.source.LookupTime(ctx, id)
	if err != nil {
		return r.fallback(city, StepResolveOffsetTime, err)
	}

	utc, err := parseUTCDatetime(wt.UTCDatetime)
	if err != nil {
		return r.fallback(city, StepResolveOffsetTime, &datasource.ParseError{Field: "utc_datetime", Err: err})
	}
	offset, err := ParseOffset(wt.UTCOffset)
	if err != nil {
		return r.fallback(city, StepResolveOffsetTime, &datasource.ParseError{Field: "utc_offset", Err: err})
	}

	r.logger.Debug("local time resolved",
		"city", city,
		"timezone", id,
		"utc", utc,
		"offset", offset,
	)
	return Resolution{
		Status: StatusResolved,
		Time:   models.NewLocalDateTime(utc, offset, id),
	}
}

func (r *Resolver) fallback(city string, step Step, err error) Resolution {
	r.logger.Warn("local time lookup failed, using UTC",
		"city", city,
		"step", step,
		"kind", datasource.ErrorKind(err),
		"error", err,
	)
	return Resolution{
		Status: StatusFallback,
		Time:   models.NewLocalDateTime(r.clock.Now(), 0, models.UTCZone),
		Step:   step,
		Err:    err,
	}
}
