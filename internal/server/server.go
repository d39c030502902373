// Package server provides the HTTP API for the embedding service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/models"
)

// EngineService is the part of service.Service the API needs.
type EngineService interface {
	EmbedBatch(ctx context.Context, texts []string) (*embedding.EmbeddingBatch, error)
	Embed(ctx context.Context, text string) (embedding.Embedding, error)
	Init(ctx context.Context) error
	Reload(ctx context.Context) error
	Status() models.EngineStatus
	Runs(ctx context.Context, limit int) ([]*models.Run, error)
	RunStats(ctx context.Context) (*models.RunStats, error)
}

// Server is the HTTP server for the embedding API.
type Server struct {
	svc    EngineService
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc EngineService, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/embeddings", s.handleEmbeddings)
		r.Post("/embedding", s.handleEmbedding)
		r.Post("/engine/init", s.handleEngineInit)
		r.Post("/engine/reload", s.handleEngineReload)
		r.Get("/status", s.handleStatus)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/stats", s.handleRunStats)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
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
