// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-checkout/internal/interfaces/http/routes"
)

const maxRequestBody = 1 << 20

// HealthChecker is a dependency probed by /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	deps       routes.Dependencies
	checks     map[string]HealthChecker
	logger     logrus.FieldLogger
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, deps routes.Dependencies, checks map[string]HealthChecker, logger logrus.FieldLogger) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
		checks: checks,
		logger: logger,
	}
}

// Handler builds the gin engine with middleware and routes
func (s *Server) Handler() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
		s.logger.WithError(err).Warn("Ignoring invalid trusted proxies")
	}

	s.setupMiddleware(engine)

	engine.GET("/health", s.healthCheck)
	engine.GET("/ready", s.readinessCheck)
	routes.SetupRoutes(engine, s.deps)

	return engine
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.startedAt = time.Now()
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.WithFields(logrus.Fields{
		"port":        s.config.Server.Port,
		"environment": s.config.App.Environment,
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(s.logger))
	engine.Use(middleware.CORS(s.config.Security))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.RequestSizeLimit(maxRequestBody))
	engine.Use(middleware.Timeout(s.config.Server.RequestTimeout, routes.StreamPath))
}

// healthCheck probes every dependency
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := gin.H{}
	for _, name := range names {
		if err := s.checks[name].Health(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	body := gin.H{
		"status":      "healthy",
		"checks":      checks,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	body := gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
	}
	if !s.startedAt.IsZero() {
		body["uptime"] = time.Since(s.startedAt).Round(time.Second).String()
	}
	c.JSON(http.StatusOK, body)
}
