// Package container wires the webhook service components together
// with ordered initialization and reverse-order teardown.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/dispatcher"
	"github.com/garyjia/merchant-webhook/internal/application/handler"
	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/internal/config"
	"github.com/garyjia/merchant-webhook/internal/infrastructure/merchantapi"
	"github.com/garyjia/merchant-webhook/internal/infrastructure/token"
	httpserver "github.com/garyjia/merchant-webhook/internal/interfaces/http"
	"github.com/garyjia/merchant-webhook/internal/webhook"
	"github.com/garyjia/merchant-webhook/pkg/database"
	"github.com/garyjia/merchant-webhook/pkg/utils"
)

// Container manages all application dependencies and lifecycle
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db     *database.DB
	tokens port.TokenStore

	// Application
	dispatcher    dispatcher.Dispatcher
	detailHandler *handler.DetailHandler

	// Interfaces
	server *httpserver.Server

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Token store
// 2. Dispatcher and event handlers
// 3. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	tokens, db, err := OpenTokenStore(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize token store: %w", err)
	}
	c.tokens = tokens
	c.db = db

	c.initDispatcher()
	c.initServer()

	c.ready.Store(true)
	c.logger.Info("Container initialization complete",
		zap.Int("handlers", len(c.dispatcher.List())),
		zap.Bool("detail_resolution", c.detailHandler != nil))
	return nil
}

// OpenTokenStore builds the configured token store.
// The returned DB is nil for the file backend.
func OpenTokenStore(cfg *config.Config, logger *zap.Logger) (port.TokenStore, *database.DB, error) {
	switch cfg.Tokens.Backend {
	case config.TokenBackendSQLite:
		db, err := database.New(database.Config{Path: cfg.Tokens.DBPath}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.NewMigrator(db, logger).RunMigrations(database.Migrations); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return token.NewSQLStore(db.DB, logger), db, nil

	default:
		store, err := token.NewFileStore(cfg.TokenFilePath(), logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// initDispatcher registers the built-in handlers
func (c *Container) initDispatcher() {
	c.dispatcher = dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewZapAdapter(c.logger.Named("dispatcher"))),
		dispatcher.WithConcurrentHandlers(c.config.Dispatch.Concurrent),
	)

	c.dispatcher.RegisterNamed("echo", handler.NewEchoHandler(c.logger.Named("echo")))
	c.dispatcher.RegisterNamed("verification", handler.NewVerificationHandler(c.logger.Named("verification"), nil))

	if !c.config.DetailResolutionEnabled() {
		c.logger.Warn("merchant_api.server not set, detail resolution disabled")
		return
	}

	client := merchantapi.NewClient(c.config.MerchantAPI.Timeout, c.logger.Named("merchantapi"))
	c.detailHandler = handler.NewDetailHandler(
		c.config.MerchantAPI.Server,
		c.tokens,
		client,
		c.logger.Named("detail"),
	)
	c.dispatcher.RegisterNamed("detail", c.detailHandler)
}

// initServer builds the HTTP server and its webhook endpoints
func (c *Container) initServer() {
	webhookHandler := webhook.NewHandler(c.dispatcher, c.config.Webhook.EchoPayload, c.logger.Named("webhook"),
		webhook.WithAsyncDispatch(c.config.Dispatch.Async))
	authHandler := webhook.NewAuthHandler(c.tokens, c.logger.Named("auth"))

	c.server = httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         c.config.Server.Host,
			Port:         c.config.Server.Port,
			ReadTimeout:  c.config.Server.ReadTimeout,
			WriteTimeout: c.config.Server.WriteTimeout,
			WebhookPath:  c.config.Webhook.Path,
			AuthPath:     c.config.Webhook.AuthPath,
		},
		c.dispatcher,
		c.tokens,
		webhookHandler,
		authHandler,
		utils.NewZapAdapter(c.logger.Named("http")),
	)
}

// Close tears components down in reverse order
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("Shutting down container")

	var firstErr error
	if c.server != nil {
		if err := c.server.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.ready.Store(false)
	return firstErr
}

// Server returns the HTTP server
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// TokenStore returns the access token store
func (c *Container) TokenStore() port.TokenStore {
	return c.tokens
}

// IsReady reports whether Start completed
func (c *Container) IsReady() bool {
	return c.ready.Load()
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
