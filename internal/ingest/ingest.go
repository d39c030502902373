package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/extract"
	"github.com/hyperjump/embedd/internal/models"
)

// BatchEmbedder is satisfied by service.Service and embedding.Engine.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) (*embedding.EmbeddingBatch, error)
}

// Ingester turns files into embedded passages.
type Ingester struct {
	embedder  BatchEmbedder
	extractor *extract.Extractor
	splitter  *Splitter
	logger    *zap.Logger
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IngesterOption {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngester creates an ingester. extractor may be nil, in which case files are read as
// plain text.
func NewIngester(embedder BatchEmbedder, extractor *extract.Extractor, splitter *Splitter, opts ...IngesterOption) *Ingester {
	in := &Ingester{
		embedder:  embedder,
		extractor: extractor,
		splitter:  splitter,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// File extracts, splits and embeds the file at path. All passages go to the embedder in one
// call. A file with no text yields no passages and no error.
func (in *Ingester) File(ctx context.Context, path string) ([]models.Passage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	text, err := in.extractContent(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	chunks := in.splitter.Split(Preprocess(text))
	if len(chunks) == 0 {
		in.logger.Debug("no text in file", zap.String("path", absPath))
		return nil, nil
	}

	batch, err := in.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", absPath, err)
	}

	src := SourceID(absPath)
	passages := make([]models.Passage, len(chunks))
	for i, chunk := range chunks {
		passages[i] = models.Passage{
			ID:     PassageID(src, i),
			Source: absPath,
			Index:  i,
			Text:   chunk,
			Vector: batch.Embeddings[i].Vector,
		}
	}
	in.logger.Debug("file embedded", zap.String("path", absPath), zap.Int("passages", len(passages)))
	return passages, nil
}

// Directory embeds every regular file under dir whose extension is in exts (all files when
// exts is empty). It stops at the first error.
func (in *Ingester) Directory(ctx context.Context, dir string, exts []string) ([]models.Passage, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	var out []models.Passage
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extensionAllowed(filepath.Ext(path), exts) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		passages, err := in.File(ctx, path)
		if err != nil {
			return err
		}
		out = append(out, passages...)
		return nil
	})
	return out, err
}

func (in *Ingester) extractContent(path string) (string, error) {
	if in.extractor != nil {
		return in.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
