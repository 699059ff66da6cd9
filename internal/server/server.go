package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/toolbridge/toolbridge/internal/app"
	"github.com/toolbridge/toolbridge/internal/common"
)

// Server manages the HTTP server and routes.
type Server struct {
	app     *app.App
	router  *http.ServeMux
	handler http.Handler
	server  *http.Server
	logger  *common.Logger
}

// New creates a new HTTP server with the given app and mounts the MCP
// endpoint. The registry's local tools dispatch through the full middleware
// chain, the same pipeline external requests travel.
func New(application *app.App) (*Server, error) {
	s := &Server{
		app:    application,
		logger: application.Logger,
	}

	s.router = s.setupRoutes()
	s.handler = s.withMiddleware(s.router)

	cfg := application.Config
	if err := application.Registry.Build(s.router, s.handler, cfg.MCP.Transport, cfg.MCP.MountPath); err != nil {
		return nil, fmt.Errorf("failed to mount MCP endpoint: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // dispatches to slow upstreams can take minutes
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Str("url", fmt.Sprintf("http://%s", s.server.Addr)).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
