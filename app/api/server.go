// Package api hosts the REST surface of the service: round join/create,
// cached course reads, and operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursequeue "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/queue"
	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server hosts the REST API.
type Server struct {
	logger       *slog.Logger
	httpServer   *http.Server
	healthChecks map[string]HealthCheck
}

// NewServer builds the API server with its full middleware stack. queue may
// be nil when the scheduled refresh is disabled.
func NewServer(
	cfg *config.Config,
	obs observability.Observability,
	rounds roundservice.Service,
	courses courseservice.Service,
	queue coursequeue.QueueService,
	healthChecks map[string]HealthCheck,
) *Server {
	logger := obs.Provider.Logger
	handlers := NewHandlers(logger, rounds, courses, queue)

	s := &Server{
		logger:       logger,
		healthChecks: healthChecks,
	}

	r := chi.NewRouter()
	r.Use(CorrelationIDMiddleware())
	r.Use(RequestLogger(logger))

	limiter := NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitPerSecond), cfg.HTTP.RateLimitBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CORSMiddleware(cfg.HTTP.AllowedOrigins))
		r.Use(RateLimitMiddleware(limiter))
		if cfg.HTTP.AuthEnabled {
			r.Use(JWTAuthMiddleware(cfg.HTTP.JWTSecret))
		}

		r.Route("/rounds", func(r chi.Router) {
			r.Get("/", handlers.HandleListRounds)
			r.Get("/{roundID}", handlers.HandleGetRound)
			r.Post("/", handlers.HandleCreateRound)
			r.Post("/join", handlers.HandleJoinRound)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", handlers.HandleListCourses)
			r.Post("/refresh", handlers.HandleRefreshCourses)
			r.Get("/sync/jobs", handlers.HandlePendingSyncJobs)
		})
	})

	r.Get("/healthz", s.handleHealthz)

	// When a dedicated metrics address is configured the app serves metrics
	// there instead.
	if cfg.Observability.MetricsAddress == "" {
		r.Handle("/metrics", promhttp.HandlerFor(obs.Registry.Prometheus, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, primarily for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("Starting API server", attr.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	report := make(map[string]string, len(s.healthChecks))
	for name, check := range s.healthChecks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error("Failed to encode health report", attr.Error(err))
	}
}
