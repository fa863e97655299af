// Package server exposes the Fairval REST API
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

// Deps holds the services the HTTP handlers depend on.
type Deps struct {
	Catalog   interfaces.CatalogService
	Valuation interfaces.ValuationService
	Estimate  interfaces.EstimateService
	Share     interfaces.ShareService
	Prefs     interfaces.PreferenceStorage
}

// Server wraps the HTTP server and handler dependencies.
type Server struct {
	config *common.Config
	deps   Deps
	server *http.Server
	logger *common.Logger
}

// NewServer creates a new HTTP REST API server.
func NewServer(config *common.Config, logger *common.Logger, deps Deps) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Markets + catalogs
	mux.HandleFunc("/api/markets", s.handleMarkets)
	mux.HandleFunc("/api/markets/", s.routeMarkets)

	// Valuation detail
	mux.HandleFunc("/api/valuation/", s.routeValuation)

	// Preferences
	mux.HandleFunc("/api/prefs", s.handlePrefs)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
