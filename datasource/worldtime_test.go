package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cityweather/models"
)

func newWorldTimeServer(t *testing.T, handler http.HandlerFunc) *WorldTimeSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWorldTimeSource(srv.URL+"/api", 5*time.Second, nil)
}

func TestLookupTimezone(t *testing.T) {
	var gotPath string
	src := newWorldTimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timezone":"Pacific/Auckland","utc_offset":"+13:00"}`))
	})

	id, err := src.LookupTimezone(context.Background(), "Auckland")
	if err != nil {
		t.Fatalf("LookupTimezone() err = %v; want nil", err)
	}
	if id != "Pacific/Auckland" {
		t.Errorf("id = %q; want Pacific/Auckland", id)
	}
	if gotPath != "/api/timezone/Auckland" {
		t.Errorf("path = %q; want /api/timezone/Auckland", gotPath)
	}
}

func TestLookupTimezoneEscapesCityName(t *testing.T) {
	var gotPath string
	src := newWorldTimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"timezone":"America/New_York"}`))
	})

	if _, err := src.LookupTimezone(context.Background(), "New York"); err != nil {
		t.Fatalf("LookupTimezone() err = %v; want nil", err)
	}
	if gotPath != "/api/timezone/New%20York" {
		t.Errorf("path = %q; want /api/timezone/New%%20York", gotPath)
	}
}

func TestLookupTimezoneFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"unknown location"}`, wantKind: KindHTTP},
		{name: "missing timezone", status: http.StatusOK, body: `{"abbreviation":"NZDT"}`, wantKind: KindParse},
		{name: "malformed", status: http.StatusOK, body: `not json`, wantKind: KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newWorldTimeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			id, err := src.LookupTimezone(context.Background(), "Atlantis")
			if err == nil {
				t.Fatalf("LookupTimezone() err = nil; want %s error", tt.wantKind)
			}
			if id != "" {
				t.Errorf("id = %q; want empty", id)
			}
			if kind := ErrorKind(err); kind != tt.wantKind {
				t.Errorf("ErrorKind = %q; want %q (err: %v)", kind, tt.wantKind, err)
			}
		})
	}
}

func TestLookupTimeKeepsIdentifierSlashes(t *testing.T) {
	var gotPath string
	src := newWorldTimeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"utc_datetime":"2024-01-01T00:00:00.000000+00:00","utc_offset":"+13:00"}`))
	})

	got, err := src.LookupTime(context.Background(), models.TimezoneID("Pacific/Auckland"))
	if err != nil {
		t.Fatalf("LookupTime() err = %v; want nil", err)
	}
	if gotPath != "/api/timezone/Pacific/Auckland" {
		t.Errorf("path = %q; want /api/timezone/Pacific/Auckland", gotPath)
	}
	if got.UTCDatetime != "2024-01-01T00:00:00.000000+00:00" {
		t.Errorf("UTCDatetime = %q", got.UTCDatetime)
	}
	if got.UTCOffset != "+13:00" {
		t.Errorf("UTCOffset = %q; want +13:00", got.UTCOffset)
	}
}

func TestLookupTimeMissingFields(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing datetime", body: `{"utc_offset":"+05:30"}`, wantField: "utc_datetime"},
		{name: "missing offset", body: `{"utc_datetime":"2024-01-01T00:00:00Z"}`, wantField: "utc_offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newWorldTimeServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := src.LookupTime(context.Background(), "Asia/Kolkata")
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("err = %v; want *ParseError", err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("Field = %q; want %q", parseErr.Field, tt.wantField)
			}
		})
	}
}

func TestLookupTimeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	src := NewWorldTimeSource(endpoint, time.Second, nil)
	_, err := src.LookupTime(context.Background(), "Europe/London")
	if kind := ErrorKind(err); kind != KindNetwork {
		t.Errorf("ErrorKind = %q; want %q (err: %v)", kind, KindNetwork, err)
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Auckland", want: "Auckland"},
		{in: "San Jose", want: "San%20Jose"},
		{in: "America/Argentina/Buenos_Aires", want: "America/Argentina/Buenos_Aires"},
		{in: "St. Clair", want: "St.%20Clair"},
	}
	for _, tt := range tests {
		if got := escapePath(tt.in); got != tt.want {
			t.Errorf("escapePath(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
