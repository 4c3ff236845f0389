package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/forecast"
)

// maxBodyBytes bounds POST /analyze request bodies.
const maxBodyBytes = 64 << 10

// Analyzer scores sunset requests.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error)
}

// WeatherSummarizer builds the evening weather summary for a coordinate.
type WeatherSummarizer interface {
	Summarize(ctx context.Context, lat, lon float64) (forecast.Summary, error)
}

// Deps are the collaborators behind the API routes.
type Deps struct {
	Analyzer Analyzer
	Weather  WeatherSummarizer
	Ready    sharedobs.ReadinessChecker
	Limiter  *RateLimiter // nil disables rate limiting
}

// Server exposes the scoring API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /analyze, /weather, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second, // model scoring can take most of OPENAI_TIMEOUT
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	limit := func(h http.Handler) http.Handler { return h }
	if deps.Limiter != nil {
		limit = deps.Limiter.Middleware
	}

	mux.Handle("POST /analyze", limit(s.handleAnalyze(deps.Analyzer)))
	mux.Handle("GET /weather", limit(s.handleWeather(deps.Weather)))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type analyzeResponse struct {
	Probability *int   `json:"probability"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(analyzer Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ScoreRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		res, err := analyzer.Analyze(r.Context(), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, analyzeResponse{Probability: res.Probability, Description: res.Description})
	}
}

func (s *Server) handleWeather(weather WeatherSummarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lon query parameters must be numbers"})
			return
		}

		summary, err := weather.Summarize(r.Context(), lat, lon)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// writeError maps domain errors to status codes. Internal details of
// unexpected errors are logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrBackendUnavailable):
		status, msg = http.StatusInternalServerError, "analysis unavailable: scoring backend is not configured"
	case errors.Is(err, domain.ErrMalformedResponse):
		status, msg = http.StatusBadGateway, "analysis unavailable: upstream returned an unusable response"
	case errors.Is(err, domain.ErrUpstream):
		status, msg = http.StatusBadGateway, "analysis unavailable: upstream request failed"
	}

	level := slog.LevelWarn
	if status == http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed", "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
