// Package httpstatus is the ambient status/health/metrics surface every
// process (scheduler, car controller, floor agent) exposes alongside its
// MQTT traffic: liveness/readiness probes, a Prometheus /metrics endpoint,
// and a /status and /ws/status view onto the component's current state.
package httpstatus

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arikolev/elevator-fleet/internal/config"
	"github.com/arikolev/elevator-fleet/internal/health"
)

// Server is the per-process status HTTP server.
type Server struct {
	cfg           *config.Config
	component     string
	provider      StatusProvider
	logger        *slog.Logger
	healthService *health.HealthService
	liveness      *health.LivenessChecker
	readiness     *health.ReadinessChecker
	httpServer    *http.Server
}

// NewServer wires the status surface for component, backed by provider's
// snapshot and any extra readiness dependencies (e.g. a broker connection
// checker) the caller registers via checkers.
func NewServer(cfg *config.Config, component string, provider StatusProvider, logger *slog.Logger, checkers ...health.HealthChecker) *Server {
	liveness := health.NewLivenessChecker()
	readiness := health.NewReadinessChecker(checkers...)
	resources := health.NewSystemResourceChecker(85.0, 1000)

	healthService := health.NewHealthService(cfg.HealthCacheTTL)
	healthService.Register(liveness)
	healthService.Register(readiness)
	healthService.Register(resources)
	for _, c := range checkers {
		healthService.Register(c)
	}

	s := &Server{
		cfg:           cfg,
		component:     component,
		provider:      provider,
		logger:        logger,
		healthService: healthService,
		liveness:      liveness,
		readiness:     readiness,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", s.livenessHandler)
	mux.HandleFunc("/health/ready", s.readinessHandler)
	mux.HandleFunc("/health", s.detailedHealthHandler)
	mux.HandleFunc("/status", s.statusHandler)

	if cfg.MetricsEnabled {
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	if cfg.WebSocketEnabled {
		mux.HandleFunc(cfg.WebSocketPath, s.statusWebSocketHandler)
	}

	rateLimiter := NewRateLimitMiddleware(600, logger)
	chain := ChainMiddleware(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(),
		rateLimiter.Handler(),
	)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.StatusPort),
		Handler:      chain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start begins serving in a background goroutine. It returns immediately;
// ListenAndServe errors (other than a clean shutdown) are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("status server listening",
			slog.String("component", s.component),
			slog.String("addr", s.httpServer.Addr))

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown gracefully drains in-flight requests within cfg.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// SecurityHeadersMiddleware sets the handful of headers that make sense
// on a read-only JSON/websocket surface.
func SecurityHeadersMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
