package datasource

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"cityweather/models"
)

const (
	// DefaultWorldTimeEndpoint is the base of the time API; lookups go to /timezone/{id}
	DefaultWorldTimeEndpoint = "http://worldtimeapi.org/api"

	userAgent = "cityweather/1.0"
)

// WorldTimeSource implements TimezoneSource against a worldtimeapi.org style service
type WorldTimeSource struct {
	client *resty.Client
	logger *slog.Logger
}

// NewWorldTimeSource creates a time API source. Retries stay disabled: a failed lookup
// falls back to UTC instead.
func NewWorldTimeSource(endpoint string, timeout time.Duration, logger *slog.Logger) *WorldTimeSource {
	if endpoint == "" {
		endpoint = DefaultWorldTimeEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("time api response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"size", len(resp.Body()),
		)
		return nil
	})

	return &WorldTimeSource{client: client, logger: logger}
}

// Name returns the source name
func (s *WorldTimeSource) Name() string {
	return "WorldTimeAPI"
}

// LookupTimezone resolves a city name to the timezone identifier the service reports
func (s *WorldTimeSource) LookupTimezone(ctx context.Context, city string) (models.TimezoneID, error) {
	body, err := s.get(ctx, city)
	if err != nil {
		return "", err
	}

	var response struct {
		Timezone string `json:"timezone"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &ParseError{Field: "body", Err: err}
	}
	if response.Timezone == "" {
		return "", missingField("timezone")
	}
	return models.TimezoneID(response.Timezone), nil
}

// LookupTime fetches utc_datetime and utc_offset for a timezone identifier
func (s *WorldTimeSource) LookupTime(ctx context.Context, id models.TimezoneID) (models.WorldTime, error) {
	body, err := s.get(ctx, string(id))
	if err != nil {
		return models.WorldTime{}, err
	}

	var response models.WorldTime
	if err := json.Unmarshal(body, &response); err != nil {
		return models.WorldTime{}, &ParseError{Field: "body", Err: err}
	}
	if response.UTCDatetime == "" {
		return models.WorldTime{}, missingField("utc_datetime")
	}
	if response.UTCOffset == "" {
		return models.WorldTime{}, missingField("utc_offset")
	}
	return response, nil
}

// get issues GET /timezone/{name} and returns the body of a 2xx response
func (s *WorldTimeSource) get(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetRawPathParam("name", escapePath(name)).
		Get("/timezone/{name}")
	if err != nil {
		return nil, &NetworkError{Op: "GET", URL: s.client.BaseURL + "/timezone/" + name, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Message: apiErrorMessage(resp.Body())}
	}
	return resp.Body(), nil
}

// escapePath escapes each segment of an identifier while keeping the "/" separators
// of names like "America/Argentina/Buenos_Aires".
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
