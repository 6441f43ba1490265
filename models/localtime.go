package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DisplayLayout is the layout used for the local time label.
const DisplayLayout = "January 02, 03:04 PM"

// TimezoneID is a canonical time zone name such as "Pacific/Auckland"
type TimezoneID string

// UTCZone is the identifier reported when no zone could be resolved
const UTCZone TimezoneID = "UTC"

// WorldTime is the raw time payload for a timezone identifier
type WorldTime struct {
	UTCDatetime string `json:"utc_datetime"`
	UTCOffset   string `json:"utc_offset"`
}

// LocalDateTime is a UTC instant plus the offset of the zone it should be shown in.
// The offset is always added to the instant; a negative offset carries its own sign.
// In JSON the offset is written as ±HH:MM (±HH:MM:SS when it has seconds).
type LocalDateTime struct {
	UTC        time.Time
	Offset     time.Duration
	TimezoneID TimezoneID
}

type localDateTimeJSON struct {
	UTC        time.Time  `json:"utc"`
	Offset     string     `json:"offset"`
	TimezoneID TimezoneID `json:"timezone"`
	Local      string     `json:"local,omitempty"`
}

// NewLocalDateTime builds a LocalDateTime, normalizing the instant to UTC
func NewLocalDateTime(utc time.Time, offset time.Duration, id TimezoneID) LocalDateTime {
	return LocalDateTime{
		UTC:        utc.UTC(),
		Offset:     offset,
		TimezoneID: id,
	}
}

// Local returns the instant in a fixed zone carrying the offset, so wall clock fields
// read as UTC + Offset.
func (l LocalDateTime) Local() time.Time {
	name := string(l.TimezoneID)
	if name == "" {
		name = string(UTCZone)
	}
	return l.UTC.In(time.FixedZone(name, int(l.Offset/time.Second)))
}

// Format renders the local wall clock with DisplayLayout
func (l LocalDateTime) Format() string {
	return l.Local().Format(DisplayLayout)
}

// OffsetString renders Offset as ±HH:MM, or ±HH:MM:SS when seconds are present
func (l LocalDateTime) OffsetString() string {
	layout := "-07:00"
	if l.Offset%time.Minute != 0 {
		layout = "-07:00:00"
	}
	return l.Local().Format(layout)
}

// MarshalJSON implements json.Marshaler
func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(localDateTimeJSON{
		UTC:        l.UTC,
		Offset:     l.OffsetString(),
		TimezoneID: l.TimezoneID,
		Local:      l.Local().Format(time.RFC3339),
	})
}

// UnmarshalJSON implements json.Unmarshaler; the "local" field is derived and ignored
func (l *LocalDateTime) UnmarshalJSON(b []byte) error {
	var raw localDateTimeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var offset time.Duration
	if raw.Offset != "" {
		var (
			t   time.Time
			err error
		)
		for _, layout := range []string{"-07:00:00", "-07:00"} {
			if t, err = time.Parse(layout, raw.Offset); err == nil {
				break
			}
		}
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", raw.Offset, err)
		}
		_, seconds := t.Zone()
		offset = time.Duration(seconds) * time.Second
	}

	*l = NewLocalDateTime(raw.UTC, offset, raw.TimezoneID)
	return nil
}
