package timeresolver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseOffset parses a UTC offset in the form ±HH:MM or ±HH:MM:SS.
// The sign is stripped before the magnitude is parsed and re-applied afterwards, so
// "-03:00" yields -3h. A missing sign means a positive offset.
func ParseOffset(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty offset")
	}

	sign := time.Duration(1)
	switch raw[0] {
	case '+':
		raw = raw[1:]
	case '-':
		sign = -1
		raw = raw[1:]
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid offset %q (want ±HH:MM or ±HH:MM:SS)", s)
	}

	hours, err := parseUnit(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q hours: %w", s, err)
	}
	minutes, err := parseUnit(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q minutes: %w", s, err)
	}
	var seconds int
	if len(parts) == 3 {
		seconds, err = parseUnit(parts[2], 59)
		if err != nil {
			return 0, fmt.Errorf("invalid offset %q seconds: %w", s, err)
		}
	}

	magnitude := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return sign * magnitude, nil
}

// parseUnit accepts one or two plain digits up to max
func parseUnit(part string, max int) (int, error) {
	if len(part) == 0 || len(part) > 2 {
		return 0, fmt.Errorf("%q is not one or two digits", part)
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not numeric", part)
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, fmt.Errorf("%d out of range (max %d)", n, max)
	}
	return n, nil
}

// parseUTCDatetime parses the ISO-8601 instant returned by the time API. Fractional
// seconds are optional.
func parseUTCDatetime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return t.UTC(), nil
}
