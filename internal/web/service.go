// Package web exposes the Nimbus HTTP API: health, metrics, owner
// authentication, API token management, and plugin administration.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimbusgit/nimbus/internal/auth"
	"github.com/nimbusgit/nimbus/internal/events"
	"github.com/nimbusgit/nimbus/internal/shared/health"
)

// Service represents the Nimbus web API service
type Service struct {
	logger  *slog.Logger
	config  *Config
	bus     *events.InMemoryBus
	auth    *auth.Service
	health  *health.Handler
	metrics prometheus.Gatherer
	server  *http.Server
}

// Config holds the configuration for the web service
type Config struct {
	Host string
	Port string
}

// NewService creates a new web service
func NewService(config *Config, bus *events.InMemoryBus, authService *auth.Service, metrics prometheus.Gatherer, logger *slog.Logger) (*Service, error) {
	s := &Service{
		logger:  logger,
		config:  config,
		bus:     bus,
		auth:    authService,
		health:  health.NewHandler(),
		metrics: metrics,
	}

	return s, nil
}

// Health returns the service's health handler so callers can register
// additional checks before Start.
func (s *Service) Health() *health.Handler {
	return s.health
}

// Start starts the web service and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting web service",
		"host", s.config.Host,
		"port", s.config.Port,
	)

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	handler := s.withCORS(mux)

	s.server = &http.Server{
		Addr:    s.config.Host + ":" + s.config.Port,
		Handler: handler,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Failed to start HTTP server", "error", err)
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes sets up the HTTP routes for the web API
func (s *Service) setupRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/tokens", s.requireAuth(s.handleCreateToken))
	mux.HandleFunc("GET /api/auth/tokens", s.requireAuth(s.handleListTokens))

	mux.HandleFunc("GET /v1/plugins", s.handleListPlugins)
	mux.HandleFunc("DELETE /v1/plugins/{name}", s.requireAuth(s.handleUnsubscribePlugin))
}

// withCORS adds permissive CORS headers for the web frontend.
func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
