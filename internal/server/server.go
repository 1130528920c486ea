// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

// IngestFunc runs the ingestion pipeline for a source. Uploads invoke it
// in a detached goroutine; the request has already returned by the time
// it finishes.
type IngestFunc func(ctx context.Context, src *models.Source)

// Server is the HTTP server for the Kotae API.
type Server struct {
	sources     storage.SourceStore
	artifacts   *storage.Artifacts
	vectors     *vectorstore.Adapter
	synthesizer *rag.Synthesizer
	deletion    *pipeline.Deletion
	ingest      IngestFunc
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	sources storage.SourceStore,
	artifacts *storage.Artifacts,
	vectors *vectorstore.Adapter,
	synthesizer *rag.Synthesizer,
	deletion *pipeline.Deletion,
	ingest IngestFunc,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		sources:     sources,
		artifacts:   artifacts,
		vectors:     vectors,
		synthesizer: synthesizer,
		deletion:    deletion,
		ingest:      ingest,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/upload_file", s.handleUploadFile)
	r.Post("/api/v1/upload_link", s.handleUploadLink)
	r.Post("/api/v1/query", s.handleQuery)
	r.Get("/api/v1/sources", s.handleListSources)
	r.Get("/api/v1/sources/{id}", s.handleGetSource)
	r.Delete("/api/v1/sources/{id}", s.handleDeleteSource)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
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
