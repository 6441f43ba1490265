package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testAPIKey = "test-key"

const aucklandBody = `{
	"weather": [{"main": "Clouds", "description": "broken clouds"}],
	"main": {"temp": 61.3, "feels_like": 60.8, "humidity": 77},
	"name": "Auckland",
	"sys": {"country": "NZ"}
}`

func newTestSource(endpoint string) *OpenWeatherMapSource {
	return NewOpenWeatherMapSource(testAPIKey, endpoint, "", 5*time.Second)
}

func TestOpenWeatherMapRequestURL(t *testing.T) {
	src := NewOpenWeatherMapSource("abc123", "https://example.test/weather", "", 0)

	tests := []struct {
		name string
		city string
		want string
	}{
		{
			name: "simple city",
			city: "Auckland",
			want: "https://example.test/weather?q=Auckland&units=imperial&APPID=abc123",
		},
		{
			name: "city with space",
			city: "Palmerston North",
			want: "https://example.test/weather?q=Palmerston+North&units=imperial&APPID=abc123",
		},
		{
			name: "city with comma",
			city: "Howick, NZ",
			want: "https://example.test/weather?q=Howick%2C+NZ&units=imperial&APPID=abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.requestURL(tt.city); got != tt.want {
				t.Errorf("requestURL(%q) = %q; want %q", tt.city, got, tt.want)
			}
		})
	}
}

func TestFetchWeatherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "Auckland" {
			t.Errorf("q = %q; want Auckland", got)
		}
		if got := q.Get("units"); got != "imperial" {
			t.Errorf("units = %q; want imperial", got)
		}
		if got := q.Get("APPID"); got != testAPIKey {
			t.Errorf("APPID = %q; want %q", got, testAPIKey)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(aucklandBody))
	}))
	defer srv.Close()

	got, err := newTestSource(srv.URL).FetchWeather(context.Background(), "Auckland")
	if err != nil {
		t.Fatalf("FetchWeather() err = %v; want nil", err)
	}

	if got.City != "Auckland" {
		t.Errorf("City = %q; want Auckland", got.City)
	}
	if got.Temperature != 61.3 {
		t.Errorf("Temperature = %v; want 61.3", got.Temperature)
	}
	if got.Humidity != 77 {
		t.Errorf("Humidity = %v; want 77", got.Humidity)
	}
	if got.Condition != "broken clouds" {
		t.Errorf("Condition = %q; want broken clouds", got.Condition)
	}
	if got.Units != "imperial" {
		t.Errorf("Units = %q; want imperial", got.Units)
	}
	if got.Provider != "OpenWeatherMap" {
		t.Errorf("Provider = %q; want OpenWeatherMap", got.Provider)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
}

func TestFetchWeatherMissingFields(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "missing temperature",
			body:      `{"weather":[{"description":"clear sky"}],"main":{"humidity":40},"name":"Perth"}`,
			wantField: "temperature",
		},
		{
			name:      "missing main block",
			body:      `{"weather":[{"description":"clear sky"}],"name":"Perth"}`,
			wantField: "temperature",
		},
		{
			name:      "missing humidity",
			body:      `{"weather":[{"description":"clear sky"}],"main":{"temp":80.1},"name":"Perth"}`,
			wantField: "humidity",
		},
		{
			name:      "empty weather list",
			body:      `{"weather":[],"main":{"temp":80.1,"humidity":40},"name":"Perth"}`,
			wantField: "condition",
		},
		{
			name:      "missing name",
			body:      `{"weather":[{"description":"clear sky"}],"main":{"temp":80.1,"humidity":40}}`,
			wantField: "city",
		},
		{
			name:      "malformed json",
			body:      `{"weather":`,
			wantField: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestSource(srv.URL).FetchWeather(context.Background(), "Perth")
			if err == nil {
				t.Fatalf("FetchWeather() err = nil; want ParseError{%s}", tt.wantField)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("err = %T (%v); want *ParseError", err, err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("Field = %q; want %q", parseErr.Field, tt.wantField)
			}
			if got.City != "" || got.Provider != "" {
				t.Errorf("reading = %+v; want zero value", got)
			}
		})
	}
}

func TestFetchWeatherZeroValuesArePresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"weather":[{"description":"snow"}],"main":{"temp":0,"humidity":0},"name":"Hobart"}`))
	}))
	defer srv.Close()

	got, err := newTestSource(srv.URL).FetchWeather(context.Background(), "Hobart")
	if err != nil {
		t.Fatalf("FetchWeather() err = %v; want nil", err)
	}
	if got.Temperature != 0 || got.Humidity != 0 {
		t.Errorf("Temperature=%v Humidity=%v; want 0 0", got.Temperature, got.Humidity)
	}
}

func TestFetchWeatherHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`, wantMessage: "city not found"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401,"message":"Invalid API key"}`, wantMessage: "Invalid API key"},
		{name: "plain text", status: http.StatusInternalServerError, body: "internal server error\n", wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestSource(srv.URL).FetchWeather(context.Background(), "Nowhere")
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("err = %v; want *HTTPError", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d; want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("Message = %q; want %q", httpErr.Message, tt.wantMessage)
			}
			if kind := ErrorKind(err); kind != KindHTTP {
				t.Errorf("ErrorKind = %q; want %q", kind, KindHTTP)
			}
		})
	}
}

func TestFetchWeatherNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	_, err := newTestSource(endpoint).FetchWeather(context.Background(), "Auckland")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v; want *NetworkError", err)
	}
	if kind := ErrorKind(err); kind != KindNetwork {
		t.Errorf("ErrorKind = %q; want %q", kind, KindNetwork)
	}
}

func TestFetchWeatherContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(aucklandBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSource(srv.URL).FetchWeather(ctx, "Auckland")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want wrapping context.Canceled", err)
	}
	if kind := ErrorKind(err); kind != KindNetwork {
		t.Errorf("ErrorKind = %q; want %q", kind, KindNetwork)
	}
}
