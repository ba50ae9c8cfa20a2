// Package http serves the operational endpoints of long-running moldata
// commands: probes and the Prometheus scrape target.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-MolData/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-MolData/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the dependencies of the ops route tree.
type RouterConfig struct {
	HealthHandler    *handlers.HealthHandler
	MetricsCollector prometheus.MetricsCollector
	Logger           logging.Logger
}

// NewRouter builds the ops route tree.  Nil dependencies leave their routes
// unmounted.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	return r
}

//Personal.AI order the ending
