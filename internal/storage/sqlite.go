package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/embedd/internal/models"
)

const defaultListLimit = 50

// SQLiteRunStore implements RunStore using SQLite.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		total_time_ms REAL NOT NULL,
		avg_time_ms REAL NOT NULL,
		provider TEXT,
		status TEXT NOT NULL,
		error_kind TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordRun inserts run.
func (s *SQLiteRunStore) RecordRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.RunStatusOK
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, count, total_time_ms, avg_time_ms, provider, status, error_kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Count, run.TotalTimeMs, run.AvgTimeMs, run.Provider, run.Status, run.ErrorKind, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit uses 50.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, count, total_time_ms, avg_time_ms, provider, status, error_kind, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var provider, errorKind sql.NullString
		if err := rows.Scan(&run.ID, &run.Count, &run.TotalTimeMs, &run.AvgTimeMs,
			&provider, &run.Status, &errorKind, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Provider = provider.String
		run.ErrorKind = errorKind.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Stats aggregates the whole log.
func (s *SQLiteRunStore) Stats(ctx context.Context) (*models.RunStats, error) {
	var stats models.RunStats
	var okTexts sql.NullInt64
	var okTime sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(count), 0),
		        COALESCE(SUM(CASE WHEN status != ? THEN 1 ELSE 0 END), 0),
		        SUM(CASE WHEN status = ? THEN count END),
		        SUM(CASE WHEN status = ? THEN total_time_ms END)
		 FROM runs`,
		models.RunStatusOK, models.RunStatusOK, models.RunStatusOK,
	).Scan(&stats.Runs, &stats.Texts, &stats.Failures, &okTexts, &okTime)
	if err != nil {
		return nil, err
	}
	if okTexts.Valid && okTexts.Int64 > 0 && okTime.Valid {
		stats.AvgTimeMs = okTime.Float64 / float64(okTexts.Int64)
	}
	return &stats, nil
}

// Close closes the database connection.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
