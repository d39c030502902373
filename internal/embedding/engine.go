// Package embedding turns text into L2-normalized vectors with an ONNX encoder.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/pkg/utils"
)

// Engine tokenizes, runs and normalizes batches of text. It is not safe for concurrent use:
// callers sharing an Engine must serialize calls themselves.
type Engine struct {
	cfg       config.EmbeddingConfig
	session   Session
	tokenizer *Tokenizer
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = utils.OrNop(l) }
}

// New validates cfg, checks that the model and tokenizer exist, and loads both.
// With the mock backend no artifacts are read.
func New(cfg config.EmbeddingConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindInternal, "", err)
	}
	if cfg.Backend == config.BackendMock {
		return NewWithSession(cfg, NewMockSession(cfg.EmbeddingDim), NewTokenizer(WordEncoder{}), opts...)
	}

	for _, path := range []string{cfg.ModelPath, cfg.TokenizerPath} {
		if err := checkArtifact(path); err != nil {
			return nil, err
		}
	}

	enc, err := LoadHFEncoder(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}
	session, err := OpenSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSession(cfg, session, NewTokenizer(enc), opts...)
}

func checkArtifact(path string) error {
	if path == "" {
		return errorf(KindModelNotFound, "empty path")
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return errorf(KindModelNotFound, "%s", path)
	default:
		return newError(KindIO, path, err)
	}
}

// NewWithSession builds an engine around an already-open session and tokenizer.
// The engine takes ownership of session.
func NewWithSession(cfg config.EmbeddingConfig, session Session, tok *Tokenizer, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindInternal, "", err)
	}
	if session == nil || tok == nil {
		return nil, errorf(KindInternal, "session and tokenizer are required")
	}
	e := &Engine{
		cfg:       cfg,
		session:   session,
		tokenizer: tok,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger.Info("embedding engine initialized",
		zap.String("model", cfg.ModelPath),
		zap.String("execution_provider", session.Provider()),
		zap.Int("max_batch_size", cfg.MaxBatchSize),
		zap.Int("max_seq_length", cfg.MaxSeqLength),
		zap.Int("embedding_dim", cfg.EmbeddingDim),
	)
	return e, nil
}

// EmbedBatch embeds texts in chunks of at most MaxBatchSize, in order. Any chunk failure
// aborts the call; no partial result is returned. ctx is checked between chunks only.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) (*EmbeddingBatch, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if e.session == nil {
		return nil, errClosed()
	}

	start := time.Now()
	chunks := (len(texts) + e.cfg.MaxBatchSize - 1) / e.cfg.MaxBatchSize
	e.logger.Debug("embedding batch", zap.Int("texts", len(texts)), zap.Int("chunks", chunks))

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindInternal, "cancelled", err)
		}
		lo := i * e.cfg.MaxBatchSize
		hi := min(lo+e.cfg.MaxBatchSize, len(texts))
		e.logger.Debug("processing chunk",
			zap.Int("chunk", i+1), zap.Int("of", chunks), zap.Int("size", hi-lo))

		out, err := e.embedChunk(texts[lo:hi])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, out...)
	}

	elapsed := time.Since(start)
	totalMs := float64(elapsed.Nanoseconds()) / 1e6
	e.logger.Info("batch embedding complete",
		zap.Int("texts", len(texts)),
		zap.Duration("elapsed", elapsed),
		zap.Float64("texts_per_sec", textsPerSecond(len(texts), elapsed)),
	)
	return NewEmbeddingBatch(vectors, totalMs), nil
}

// textsPerSecond is 0 when no measurable time elapsed.
func textsPerSecond(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}

func errClosed() error { return errorf(KindInternal, "engine closed") }

// embedChunk runs one chunk through tokenize -> inference -> normalize.
func (e *Engine) embedChunk(texts []string) ([][]float32, error) {
	tokens, err := e.tokenizer.Prepare(texts, e.cfg.MaxSeqLength)
	if err != nil {
		return nil, err
	}
	rows, err := e.session.Run(tokens.IDs, tokens.Mask, tokens.Rows, tokens.SeqLen)
	if err != nil {
		var ee *Error
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, newError(KindBackend, "", err)
	}
	if len(rows) != len(texts) {
		return nil, errorf(KindInternal, "session returned %d rows for %d texts", len(rows), len(texts))
	}

	out := make([][]float32, len(rows))
	for i, row := range rows {
		if len(row) != e.cfg.EmbeddingDim {
			e.logger.Warn("embedding width differs from configured dimension",
				zap.Int("got", len(row)), zap.Int("configured", e.cfg.EmbeddingDim))
		}
		v, ok := Normalize(row)
		if !ok {
			e.logger.Warn("embedding has near-zero norm, returning as-is", zap.Int("row", i))
		}
		out[i] = v
	}
	return out, nil
}

// Embed embeds a single text.
func (e *Engine) Embed(ctx context.Context, text string) (Embedding, error) {
	batch, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Embedding{}, err
	}
	if len(batch.Embeddings) == 0 {
		return Embedding{}, errorf(KindInternal, "no embedding generated")
	}
	return batch.Embeddings[0], nil
}

// Dimension returns the configured embedding dimension.
func (e *Engine) Dimension() int { return e.cfg.EmbeddingDim }

// MaxBatchSize returns the configured chunk ceiling.
func (e *Engine) MaxBatchSize() int { return e.cfg.MaxBatchSize }

// Provider names the execution provider in use, or "" once closed.
func (e *Engine) Provider() string {
	if e.session == nil {
		return ""
	}
	return e.session.Provider()
}

// Close releases the session. Embedding calls on a closed engine fail with KindInternal.
func (e *Engine) Close() error {
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
