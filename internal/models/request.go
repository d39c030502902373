package models

import "fmt"

// EmbeddingRequest is the body of POST /api/v1/embeddings.
type EmbeddingRequest struct {
	Texts []string `json:"texts"`
}

// Validate rejects an empty request. maxTexts is enforced by the caller so it can report the
// batch-size kind.
func (r *EmbeddingRequest) Validate() error {
	if len(r.Texts) == 0 {
		return fmt.Errorf("texts cannot be empty")
	}
	return nil
}

// EmbeddingResponse is returned by the batch endpoint. On failure Success is false, Error is
// set, Kind names the engine error kind when there is one, and the other fields are zero.
type EmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Count      int         `json:"count"`
	TimeMs     float64     `json:"time_ms"`
	AvgTimeMs  float64     `json:"avg_time_ms"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`
}

// SingleEmbeddingRequest is the body of POST /api/v1/embedding.
type SingleEmbeddingRequest struct {
	Text string `json:"text"`
}

// SingleEmbeddingResponse is returned by the single-text endpoint.
type SingleEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// EngineStatus describes the engine as seen by the service.
type EngineStatus struct {
	State         string `json:"state"`
	Initialized   bool   `json:"initialized"`
	Dimension     int    `json:"dimension"`
	MaxBatchSize  int    `json:"max_batch_size"`
	Provider      string `json:"provider,omitempty"`
	ModelLoaded   bool   `json:"model_loaded"`
	LastError     string `json:"last_error,omitempty"`
	ArtifactBytes int64  `json:"artifact_bytes"`
	CachedTexts   int    `json:"cached_texts"`
}

// ErrorResponse is the body of a non-2xx reply outside the embeddings endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
