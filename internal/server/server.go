// Package server provides the HTTP API over the question-answering
// pipeline.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/indexer"
	"document-qa/internal/models"
)

// QueryService is the single pipeline capability the server consumes.
type QueryService interface {
	Query(ctx context.Context, question string) models.PipelineResult
}

// StatsFunc reports the serving collection's state for the health
// endpoint.
type StatsFunc func(ctx context.Context) indexer.Stats

// Server is the HTTP server for the question-answering API.
type Server struct {
	pipeline QueryService
	stats    StatsFunc
	config   *config.ServerConfig
	server   *http.Server
}

// New creates a server with the given dependencies.
func New(pipeline QueryService, stats StatsFunc, cfg *config.ServerConfig) *Server {
	return &Server{pipeline: pipeline, stats: stats, config: cfg}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.router(),
	}
	log.Info().Str("addr", s.config.Addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/query", s.handleQuery)
	r.Get("/healthz", s.handleHealth)
	return r
}
