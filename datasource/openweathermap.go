package datasource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cityweather/models"
)

const (
	// DefaultOpenWeatherMapEndpoint is the current weather endpoint
	DefaultOpenWeatherMapEndpoint = "https://api.openweathermap.org/data/2.5/weather"

	// DefaultUnits matches the units the app displays
	DefaultUnits = "imperial"
)

// OpenWeatherMapSource implements WeatherSource against the OpenWeatherMap current weather API
type OpenWeatherMapSource struct {
	apiKey     string
	endpoint   string
	units      string
	httpClient *http.Client
}

// NewOpenWeatherMapSource creates a new OpenWeatherMap source.
// Empty endpoint and units fall back to the defaults; a zero timeout keeps the
// transport default.
func NewOpenWeatherMapSource(apiKey, endpoint, units string, timeout time.Duration) *OpenWeatherMapSource {
	if endpoint == "" {
		endpoint = DefaultOpenWeatherMapEndpoint
	}
	if units == "" {
		units = DefaultUnits
	}
	return &OpenWeatherMapSource{
		apiKey:   apiKey,
		endpoint: endpoint,
		units:    units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (p *OpenWeatherMapSource) Name() string {
	return "OpenWeatherMap"
}

// requestURL builds endpoint?q=<city>&units=<units>&APPID=<key> in that order
func (p *OpenWeatherMapSource) requestURL(city string) string {
	var b strings.Builder
	b.WriteString(p.endpoint)
	b.WriteString("?q=")
	b.WriteString(url.QueryEscape(city))
	b.WriteString("&units=")
	b.WriteString(url.QueryEscape(p.units))
	b.WriteString("&APPID=")
	b.WriteString(url.QueryEscape(p.apiKey))
	return b.String()
}

// FetchWeather fetches current weather for a city
func (p *OpenWeatherMapSource) FetchWeather(ctx context.Context, city string) (models.WeatherReading, error) {
	endpoint := p.requestURL(city)

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.WeatherReading{}, &NetworkError{Op: "create request", Err: err}
	}

	// Execute request
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return models.WeatherReading{}, &NetworkError{Op: "GET", URL: p.endpoint, Err: err}
	}
	defer resp.Body.Close()

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherReading{}, &NetworkError{Op: "read body", URL: p.endpoint, Err: err}
	}

	// Check for error status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.WeatherReading{}, &HTTPError{StatusCode: resp.StatusCode, Message: apiErrorMessage(body)}
	}

	reading, err := parseOpenWeatherMap(body)
	if err != nil {
		return models.WeatherReading{}, err
	}
	reading.Provider = p.Name()
	reading.Units = p.units
	reading.FetchedAt = time.Now()
	return reading, nil
}

// parseOpenWeatherMap decodes a current weather payload. Pointer fields tell a
// missing value apart from a zero one.
func parseOpenWeatherMap(body []byte) (models.WeatherReading, error) {
	var response struct {
		Main *struct {
			Temp     *float64 `json:"temp"`
			Humidity *float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Name *string `json:"name"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return models.WeatherReading{}, &ParseError{Field: "body", Err: err}
	}

	switch {
	case response.Main == nil || response.Main.Temp == nil:
		return models.WeatherReading{}, missingField("temperature")
	case response.Main.Humidity == nil:
		return models.WeatherReading{}, missingField("humidity")
	case len(response.Weather) == 0 || response.Weather[0].Description == "":
		return models.WeatherReading{}, missingField("condition")
	case response.Name == nil:
		return models.WeatherReading{}, missingField("city")
	}

	return models.WeatherReading{
		City:        *response.Name,
		Temperature: *response.Main.Temp,
		Humidity:    *response.Main.Humidity,
		Condition:   response.Weather[0].Description,
	}, nil
}

// apiErrorMessage extracts the provider message from an error body, falling back to
// the raw text.
func apiErrorMessage(body []byte) string {
	var apiErr struct {
		Cod     any    `json:"cod"` // int or string depending on the endpoint
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	return strings.TrimSpace(string(body))
}
