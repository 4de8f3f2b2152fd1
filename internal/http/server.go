// Package http provides the operational sidecar for erpd: liveness,
// readiness, and Prometheus metrics over plain HTTP. The MCP protocol owns
// the process's stdout, so this listener is the only way to probe a
// running instance.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tallyforge/erpd/internal/logging"
)

// ReadyChecker reports whether a verified backend session is installed.
// The session manager satisfies it.
type ReadyChecker interface {
	IsAuthenticated() bool
}

// Server serves the sidecar endpoints.
type Server struct {
	echo    *echo.Echo
	ready   ReadyChecker
	logger  *logging.Logger
	config  *Config
	metrics *HTTPMetrics
}

// Config holds sidecar listen settings.
type Config struct {
	Host    string
	Port    int
	Version string
}

// NewServer creates the sidecar server.
func NewServer(ready ReadyChecker, logger *logging.Logger, cfg *Config) (*Server, error) {
	if ready == nil {
		return nil, fmt.Errorf("ready checker cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewHTTPMetrics(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		ready:   ready,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the sidecar endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/ready", s.handleReady)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// handleHealth reports process liveness. It answers as long as the process
// runs, regardless of backend connectivity.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "erpd",
		Version: s.config.Version,
	})
}

// handleReady reports whether operations would pass the auth gate.
// Unconnected instances answer 503 so orchestrators hold traffic until
// auth_connect has succeeded.
func (s *Server) handleReady(c echo.Context) error {
	if !s.ready.IsAuthenticated() {
		return c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
	}
	return c.JSON(http.StatusOK, ReadyResponse{Ready: true})
}

// Echo exposes the router for additional route registration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http sidecar", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http sidecar")
	return s.echo.Shutdown(ctx)
}
