package embedding

import "context"

// Embedder is the surface of Engine that callers hold on to. It lets the service layer swap
// engines on reload and be tested against fakes.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) (*EmbeddingBatch, error)
	Embed(ctx context.Context, text string) (Embedding, error)
	Dimension() int
	MaxBatchSize() int
	Provider() string
	Close() error
}

var _ Embedder = (*Engine)(nil)
