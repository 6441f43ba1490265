// Package api exposes the controller and the lookups over JSON HTTP so any renderer
// can drive them.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cityweather/autocomplete"
	"cityweather/controller"
	"cityweather/datasource"
)

const maxBodyBytes = 1 << 16

// Server represents the API server
type Server struct {
	controller *controller.Controller
	weather    datasource.WeatherSource
	resolver   controller.TimeResolver
	dir        autocomplete.Directory
	logger     *slog.Logger
	router     *mux.Router
	handler    http.Handler
	server     *http.Server
}

// NewServer creates a new API server listening on addr
func NewServer(c *controller.Controller, weather datasource.WeatherSource, resolver controller.TimeResolver,
	dir autocomplete.Directory, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		controller: c,
		weather:    weather,
		resolver:   resolver,
		dir:        dir,
		logger:     logger,
		router:     mux.NewRouter(),
	}
	s.routes()
	// wrapped outside the router so 404 and 405 responses are tagged and logged too
	s.handler = requestID(s.requestLogger(s.router))

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path))
	})

	r.HandleFunc("/api/health", s.handleHealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/cities", s.handleCities).Methods(http.MethodGet)
	r.HandleFunc("/api/weather/{city}", s.handleWeather).Methods(http.MethodGet)
	r.HandleFunc("/api/time/{city}", s.handleTime).Methods(http.MethodGet)
	r.HandleFunc("/api/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/api/select", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/api/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
}

// Handler returns the root handler, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins the API server; it returns http.ErrServerClosed after Shutdown
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"weather":   s.weather.Name(),
		"cities":    s.dir.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type suggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Visible     bool     `json:"visible"`
}

// handleCities filters the directory without touching controller state
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	suggestions := autocomplete.FilterCities(q, s.dir)
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Query:       q,
		Suggestions: suggestions,
		Visible:     len(suggestions) > 0,
	})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(mux.Vars(r)["city"])
	if city == "" {
		writeError(w, http.StatusBadRequest, "city not specified")
		return
	}

	reading, err := s.weather.FetchWeather(r.Context(), city)
	if err != nil {
		s.logger.Error("weather fetch failed", "city", city, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   http.StatusText(http.StatusBadGateway),
			"message": controller.WeatherErrorMessage,
			"kind":    datasource.ErrorKind(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

type timeResponse struct {
	City     string    `json:"city"`
	Timezone string    `json:"timezone"`
	UTC      time.Time `json:"utc"`
	Offset   string    `json:"offset"`
	Local    string    `json:"local"`
	Label    string    `json:"label"`
}

// handleTime always answers 200; a failed lookup yields the current UTC time
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	lt := s.resolver.ResolveLocalTime(r.Context(), city)

	local := lt.Local()
	writeJSON(w, http.StatusOK, timeResponse{
		City:     city,
		Timezone: string(lt.TimezoneID),
		UTC:      lt.UTC,
		Offset:   lt.OffsetString(),
		Local:    local.Format(time.RFC3339),
		Label:    lt.Format(),
	})
}

type queryRequest struct {
	Text string `json:"text"`
}

type cityRequest struct {
	City string `json:"city"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.controller.OnQueryChanged(req.Text))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.controller.SelectSuggestion(req.City))
}

// handleSubmit answers 200 even when the weather fetch fails; the state carries
// the user-facing error text.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.controller.OnSubmit(r.Context(), req.City)
	if errors.Is(err, controller.ErrEmptyCity) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
