// Package server provides the HTTP API for Kiku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/config"
	"github.com/hyperjump/kiku/internal/history"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/pipeline"
)

// Server is the HTTP server for the Kiku API. It owns the active document
// set: uploads replace it, and questions are answered against it.
type Server struct {
	pipeline *pipeline.Pipeline
	history  history.Store
	config   *config.Config
	apiKey   string
	logger   *zap.Logger
	server   *http.Server

	mu        sync.RWMutex
	documents models.DocumentSet
}

// NewServer creates a server with the given dependencies. apiKey is the
// provider key used when a request does not carry its own.
func NewServer(
	p *pipeline.Pipeline,
	store history.Store,
	cfg *config.Config,
	apiKey string,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: p,
		history:  store,
		config:   cfg,
		apiKey:   apiKey,
		logger:   logger,
	}
}

// SetDocuments replaces the active document set.
func (s *Server) SetDocuments(set models.DocumentSet) {
	s.mu.Lock()
	s.documents = set
	s.mu.Unlock()
}

// Documents returns the active document set.
func (s *Server) Documents() models.DocumentSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents
}

// Router builds the chi router with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/documents", s.handleUploadDocuments)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/history/{user}", s.handleHistoryList)
	r.Delete("/api/v1/history/{user}", s.handleHistoryDelete)
	r.Get("/api/v1/history/{user}/export", s.handleHistoryExport)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
