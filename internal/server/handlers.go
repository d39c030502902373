package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/models"
	"github.com/hyperjump/embedd/internal/service"
)

const maxRunsLimit = 1000

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req models.EmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, models.EmbeddingResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		s.respondJSON(w, http.StatusBadRequest, models.EmbeddingResponse{
			Error: err.Error(),
			Kind:  embedding.KindEmptyInput.String(),
		})
		return
	}
	if limit := s.config.MaxTexts; limit > 0 && len(req.Texts) > limit {
		err := embedding.BatchSizeExceeded(len(req.Texts), limit)
		s.respondJSON(w, http.StatusBadRequest, models.EmbeddingResponse{Error: err.Error(), Kind: kindOf(err)})
		return
	}

	s.logger.Debug("embeddings request", zap.Int("texts", len(req.Texts)))
	batch, err := s.svc.EmbedBatch(r.Context(), req.Texts)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("embedding failed", zap.Error(err))
		}
		s.respondJSON(w, status, models.EmbeddingResponse{Error: err.Error(), Kind: kindOf(err)})
		return
	}
	s.respondJSON(w, http.StatusOK, models.EmbeddingResponse{
		Embeddings: batch.Vectors(),
		Count:      batch.Count,
		TimeMs:     batch.TotalTimeMs,
		AvgTimeMs:  batch.AvgTimeMs,
		Success:    true,
	})
}

func (s *Server) handleEmbedding(w http.ResponseWriter, r *http.Request) {
	var req models.SingleEmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	emb, err := s.svc.Embed(r.Context(), req.Text)
	if err != nil {
		s.logger.Debug("single embedding failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error(), err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SingleEmbeddingResponse{
		Embedding: emb.Vector,
		Dimension: emb.Dimension,
	})
}

func (s *Server) handleEngineInit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Init(r.Context()); err != nil {
		s.logger.Error("engine init failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error(), err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleEngineReload(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reload(r.Context()); err != nil {
		s.logger.Error("engine reload failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error(), err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := s.svc.Runs(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.RunStats(r.Context())
	if err != nil {
		s.logger.Error("run stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an engine or service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, embedding.ErrEmptyInput), errors.Is(err, embedding.ErrBatchSizeExceeded):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an ErrorResponse; the kind is included when err carries one.
func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message, Kind: kindOf(err)})
}

// kindOf names the engine error kind in err's chain, or "" for errors without one
// (bad request bodies, ErrNotInitialized).
func kindOf(err error) string {
	var ee *embedding.Error
	if errors.As(err, &ee) {
		return ee.Kind.String()
	}
	return ""
}
