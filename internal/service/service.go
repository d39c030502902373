// Package service owns the embedding engine on behalf of concurrent callers. It serializes
// engine access, tracks the engine lifecycle, caches vectors by text and records every batch
// in the run log.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/models"
	"github.com/hyperjump/embedd/internal/storage"
	"github.com/hyperjump/embedd/pkg/utils"
)

// ErrNotInitialized is returned by embedding calls before Init succeeds or after Close.
var ErrNotInitialized = errors.New("embedding engine not initialized")

// Factory builds an engine from cfg.
type Factory func(cfg config.EmbeddingConfig) (embedding.Embedder, error)

// Service guards a single engine with one mutex.
type Service struct {
	cfg     config.EmbeddingConfig
	factory Factory
	runs    storage.RunStore
	logger  *zap.Logger

	mu      sync.Mutex
	engine  embedding.Embedder
	state   State
	lastErr error
	cache   *lru.Cache[string, []float32]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger; the default engine factory passes it on to the engine.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = utils.OrNop(l) }
}

// WithRunStore records every batch in store. The caller keeps ownership of store.
func WithRunStore(store storage.RunStore) Option {
	return func(s *Service) { s.runs = store }
}

// WithFactory replaces embedding.New as the engine constructor.
func WithFactory(f Factory) Option {
	return func(s *Service) { s.factory = f }
}

// New returns a stopped service. Call Init to load the engine.
func New(cfg config.EmbeddingConfig, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: zap.NewNop(),
		state:  StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		logger := s.logger
		s.factory = func(cfg config.EmbeddingConfig) (embedding.Embedder, error) {
			return embedding.New(cfg, embedding.WithLogger(logger))
		}
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Init builds the engine. It is a no-op when an engine is already loaded.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Ready() {
		s.logger.Debug("embedding engine already initialized")
		return nil
	}
	s.state = StateStarting
	engine, err := s.factory(s.cfg)
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		s.logger.Error("embedding engine init failed", zap.Error(err))
		return err
	}
	s.engine = engine
	s.state = StateRunning
	s.lastErr = nil
	s.logger.Info("embedding engine running",
		zap.String("provider", engine.Provider()),
		zap.Int("dimension", engine.Dimension()))
	return nil
}

// Reload builds a fresh engine and swaps it in, closing the old one. The build happens
// without holding the lock so in-flight calls finish on the old engine. On failure the
// current engine, if any, stays in place. A stopped service (never initialized, or closed
// while the build ran) is left stopped and Reload returns ErrNotInitialized.
func (s *Service) Reload(ctx context.Context) error {
	if s.State() == StateStopped {
		return ErrNotInitialized
	}
	engine, err := s.factory(s.cfg)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		if s.state == StateFailed || s.state == StateStarting {
			s.state = StateFailed
		}
		s.mu.Unlock()
		s.logger.Error("embedding engine reload failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		if err := engine.Close(); err != nil {
			s.logger.Warn("failed to close reloaded engine", zap.Error(err))
		}
		s.logger.Info("service stopped during reload, discarding new engine")
		return ErrNotInitialized
	}
	old := s.engine
	s.engine = engine
	s.state = StateRunning
	s.lastErr = nil
	if s.cache != nil {
		s.cache.Purge()
	}
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("failed to close previous engine", zap.Error(err))
		}
	}
	s.logger.Info("embedding engine reloaded", zap.String("provider", engine.Provider()))
	return nil
}

// EmbedBatch embeds texts in order. Cached texts are served from the cache and the rest go
// to the engine in a single call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) (*embedding.EmbeddingBatch, error) {
	if len(texts) == 0 {
		return nil, embedding.ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, ErrNotInitialized
	}

	start := time.Now()
	vectors := make([][]float32, len(texts))
	var misses []string
	missAt := make(map[string][]int)
	for i, text := range texts {
		if s.cache != nil {
			if v, ok := s.cache.Get(text); ok {
				vectors[i] = append([]float32(nil), v...)
				continue
			}
		}
		if _, seen := missAt[text]; !seen {
			misses = append(misses, text)
		}
		missAt[text] = append(missAt[text], i)
	}

	if len(misses) > 0 {
		batch, err := s.engine.EmbedBatch(ctx, misses)
		if err != nil {
			s.failCall(ctx, len(texts), err)
			return nil, err
		}
		for j, emb := range batch.Embeddings {
			text := misses[j]
			for k, i := range missAt[text] {
				if k == 0 {
					vectors[i] = emb.Vector
				} else {
					vectors[i] = append([]float32(nil), emb.Vector...)
				}
			}
			if s.cache != nil {
				s.cache.Add(text, append([]float32(nil), emb.Vector...))
			}
		}
	}

	if s.state == StateDegraded {
		s.logger.Info("embedding engine recovered")
		s.state = StateRunning
		s.lastErr = nil
	}

	totalMs := float64(time.Since(start).Nanoseconds()) / 1e6
	result := embedding.NewEmbeddingBatch(vectors, totalMs)
	s.record(ctx, &models.Run{
		Count:       result.Count,
		TotalTimeMs: result.TotalTimeMs,
		AvgTimeMs:   result.AvgTimeMs,
		Provider:    s.engine.Provider(),
		Status:      models.RunStatusOK,
	})
	if hits := len(texts) - len(misses); hits > 0 {
		s.logger.Debug("embedding cache hits", zap.Int("hits", hits), zap.Int("misses", len(misses)))
	}
	return result, nil
}

// failCall records a failed batch and moves to degraded on backend errors. Called with mu held.
func (s *Service) failCall(ctx context.Context, n int, err error) {
	kind := embedding.KindOf(err)
	if kind == embedding.KindBackend {
		s.state = StateDegraded
		s.lastErr = err
		s.logger.Warn("embedding engine degraded", zap.Error(err))
	}
	s.record(ctx, &models.Run{
		Count:     n,
		Provider:  s.engine.Provider(),
		Status:    models.RunStatusError,
		ErrorKind: kind.String(),
	})
}

// record writes run to the run log. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, run *models.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record run", zap.Error(err))
	}
}

// Embed embeds one text.
func (s *Service) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	batch, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return embedding.Embedding{}, err
	}
	return batch.Embeddings[0], nil
}

// Status reports the current state. Artifact sizes are read from disk on every call.
func (s *Service) Status() models.EngineStatus {
	s.mu.Lock()
	st := models.EngineStatus{
		State:        string(s.state),
		Initialized:  s.state.Ready(),
		Dimension:    s.cfg.EmbeddingDim,
		MaxBatchSize: s.cfg.MaxBatchSize,
		ModelLoaded:  s.engine != nil,
	}
	if s.engine != nil {
		st.Provider = s.engine.Provider()
		st.Dimension = s.engine.Dimension()
		st.MaxBatchSize = s.engine.MaxBatchSize()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.cache != nil {
		st.CachedTexts = s.cache.Len()
	}
	s.mu.Unlock()

	if s.cfg.Backend != config.BackendMock {
		n, err := storage.DiskUsageBytes(s.cfg.ModelPath, s.cfg.TokenizerPath)
		if err != nil {
			s.logger.Debug("failed to size model artifacts", zap.Error(err))
		}
		st.ArtifactBytes = n
	}
	return st
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the engine configuration the service builds with.
func (s *Service) Config() config.EmbeddingConfig { return s.cfg }

// Runs returns recent runs, newest first. Without a run store it returns nil.
func (s *Service) Runs(ctx context.Context, limit int) ([]*models.Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

// RunStats aggregates the run log. Without a run store it returns zero stats.
func (s *Service) RunStats(ctx context.Context) (*models.RunStats, error) {
	if s.runs == nil {
		return &models.RunStats{}, nil
	}
	return s.runs.Stats(ctx)
}

// Close releases the engine and returns to stopped. Init may be called again afterwards.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateStopped
	if s.cache != nil {
		s.cache.Purge()
	}
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	return err
}
