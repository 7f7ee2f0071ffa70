// Package http serves the prediction API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PredictionService answers read queries against the partitioned stores.
type PredictionService interface {
	Query(ctx context.Context, q domain.PredictionQuery) (domain.Table, error)
	Latest(ctx context.Context, metrics []domain.Metric, units domain.Units, version string) (domain.Table, time.Time, error)
	Basins(locations []string) []domain.Basin
	CheckReadiness(ctx context.Context) error
}

// IngestStore persists posted prediction records.
type IngestStore interface {
	UpsertBatch(ctx context.Context, obs []domain.Observation) (int64, error)
}

// Publisher mirrors ingested records to a message topic.
type Publisher interface {
	PublishBatch(ctx context.Context, obs []domain.Observation) error
}

// IngestOptions configures the write path. A nil Store disables it; a nil
// Publisher skips mirroring.
type IngestOptions struct {
	Store     IngestStore
	Publisher Publisher
	APIKey    string
}

// Server exposes the prediction API.
type Server struct {
	httpServer *http.Server
	svc        PredictionService
	ingest     IngestOptions
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server with all API routes registered.
func NewServer(addr string, svc PredictionService, ingest IngestOptions, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		ingest:  ingest,
		logger:  logger,
		metrics: metrics,
	}
	s.httpServer.Handler = s.accessLog(mux)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /predictions", s.handlePredictions)
	mux.HandleFunc("GET /predictions/raw", s.handleRaw)
	mux.HandleFunc("GET /predictions/latest", s.handleLatest)
	mux.HandleFunc("GET /locations", s.handleLocations)
	mux.HandleFunc("POST /predictions", s.handleIngest)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
