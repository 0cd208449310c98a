// Package http provides the HTTP server adapter for the webhook service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-webhook/internal/application/dispatcher"
	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/internal/webhook"
)

// Version is reported by the health check
const Version = "1.0.0"

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	WebhookPath  string
	AuthPath     string // empty disables token capture
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		WebhookPath:  "/webhook",
		AuthPath:     "/auth",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config         ServerConfig
	httpServer     *http.Server
	router         *gin.Engine
	dispatcher     dispatcher.Dispatcher
	tokens         port.TokenStore
	webhookHandler *webhook.Handler
	authHandler    *webhook.AuthHandler
	logger         Logger
}

// NewServer creates a new HTTP server
func NewServer(
	config ServerConfig,
	d dispatcher.Dispatcher,
	tokens port.TokenStore,
	webhookHandler *webhook.Handler,
	authHandler *webhook.AuthHandler,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:         config,
		router:         router,
		dispatcher:     d,
		tokens:         tokens,
		webhookHandler: webhookHandler,
		authHandler:    authHandler,
		logger:         logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.dispatcher, s.tokens, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	// The webhook sender may use either method
	s.router.POST(s.config.WebhookPath, s.webhookHandler.Handle)
	s.router.GET(s.config.WebhookPath, s.webhookHandler.Handle)

	if s.config.AuthPath != "" && s.authHandler != nil {
		s.router.POST(s.config.AuthPath, s.authHandler.Handle)
		s.router.GET(s.config.AuthPath, s.authHandler.Handle)
	}

	api := s.router.Group("/api")
	{
		api.GET("/handlers", handlers.ListHandlers)
		api.GET("/merchants", handlers.ListMerchants)
	}
}

// Start starts the HTTP server and blocks until ctx is done or the server fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
