package embedding

import "math"

// normalizedTolerance is how far a norm may stray from 1 and still count as unit length.
const normalizedTolerance = 1e-5

// Embedding is a single vector produced by the engine.
type Embedding struct {
	Vector    []float32 `json:"vector"`
	Dimension int       `json:"dimension"`
}

// NewEmbedding wraps v without copying it.
func NewEmbedding(v []float32) Embedding {
	return Embedding{Vector: v, Dimension: len(v)}
}

// Norm returns the L2 norm of the vector.
func (e Embedding) Norm() float32 {
	return float32(l2Norm(e.Vector))
}

// IsNormalized reports whether the vector has unit length within 1e-5.
func (e Embedding) IsNormalized() bool {
	return math.Abs(float64(e.Norm())-1.0) < normalizedTolerance
}

// EmbeddingBatch is the ordered result of one EmbedBatch call.
type EmbeddingBatch struct {
	Embeddings  []Embedding `json:"embeddings"`
	Count       int         `json:"count"`
	AvgTimeMs   float64     `json:"avg_time_ms"`
	TotalTimeMs float64     `json:"total_time_ms"`
}

// NewEmbeddingBatch builds a batch from vectors in input order. AvgTimeMs is 0 for an empty batch.
func NewEmbeddingBatch(vectors [][]float32, totalTimeMs float64) *EmbeddingBatch {
	embeddings := make([]Embedding, len(vectors))
	for i, v := range vectors {
		embeddings[i] = NewEmbedding(v)
	}
	var avg float64
	if len(vectors) > 0 {
		avg = totalTimeMs / float64(len(vectors))
	}
	return &EmbeddingBatch{
		Embeddings:  embeddings,
		Count:       len(vectors),
		AvgTimeMs:   avg,
		TotalTimeMs: totalTimeMs,
	}
}

// Vectors returns the raw vectors in order.
func (b *EmbeddingBatch) Vectors() [][]float32 {
	out := make([][]float32, len(b.Embeddings))
	for i, e := range b.Embeddings {
		out[i] = e.Vector
	}
	return out
}
