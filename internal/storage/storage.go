// Package storage defines the persistence interface for the embedding run log.
package storage

import (
	"context"

	"github.com/hyperjump/embedd/internal/models"
)

// RunStore records batch embedding calls.
type RunStore interface {
	// RecordRun stores run, assigning ID and CreatedAt when unset.
	RecordRun(ctx context.Context, run *models.Run) error
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	Stats(ctx context.Context) (*models.RunStats, error)

	Close() error
}
