// Package models defines the data structures shared by the API, the run log and the CLI.
package models

import "time"

// Run statuses.
const (
	RunStatusOK    = "ok"
	RunStatusError = "error"
)

// Run records one batch embedding call.
type Run struct {
	ID          string    `json:"id" db:"id"`
	Count       int       `json:"count" db:"count"`
	TotalTimeMs float64   `json:"total_time_ms" db:"total_time_ms"`
	AvgTimeMs   float64   `json:"avg_time_ms" db:"avg_time_ms"`
	Provider    string    `json:"provider" db:"provider"`
	Status      string    `json:"status" db:"status"`
	ErrorKind   string    `json:"error_kind,omitempty" db:"error_kind"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RunStats aggregates the run log.
type RunStats struct {
	Runs     int64 `json:"runs"`
	Texts    int64 `json:"texts"`
	Failures int64 `json:"failures"`
	// AvgTimeMs is the mean per-text time over successful runs.
	AvgTimeMs float64 `json:"avg_time_ms"`
}
