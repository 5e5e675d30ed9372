package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"mise/internal/handlers"
	"mise/internal/inventory"
	applog "mise/internal/log"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	Database *gorm.DB
	Sales    SalesConfig
}

// SalesConfig controls how sales and stock edits are serialized.
type SalesConfig struct {
	// Locker replaces the in-process locker, e.g. with a Redis-backed one
	// shared by several instances.
	Locker      inventory.Locker
	LockTimeout time.Duration
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"lockTimeout", cfg.Sales.LockTimeout.String(),
		"sharedLocker", cfg.Sales.Locker != nil,
	)

	if cfg.Database != nil {
		svc := inventory.New(cfg.Database,
			inventory.WithLocker(cfg.Sales.Locker),
			inventory.WithLockTimeout(cfg.Sales.LockTimeout),
		)
		handlers.Configure(svc)
		applog.Debug(context.Background(), "inventory service configured")
	} else {
		applog.Debug(context.Background(), "no database provided, api routes will report unavailable")
		handlers.Configure(nil)
	}

	handler := withRequestLogging(newRouter())

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
