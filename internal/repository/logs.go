package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// DefaultLogLimit caps List when the caller passes no limit.
const DefaultLogLimit = 100

// LogRepository is the append-only store for ingested syslog datagrams.
// It is safe for concurrent use; the pool in *sql.DB handles concurrency.
type LogRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	now func() time.Time
}

// NewLogRepository creates a LogRepository backed by db.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{DB: db, now: time.Now}
}

// Append stores entry, assigning its ID and write timestamp. Failures wrap
// ErrPersistence.
func (r *LogRepository) Append(ctx context.Context, entry models.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO logs (id, source, content, created_at) VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.Source, entry.Content, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: append log: %w", ErrPersistence, err)
	}
	return nil
}

// List returns the newest entries first, optionally filtered by source.
//
//	source: sender IP to filter on, empty for all sources
//	limit:  maximum rows; values <= 0 use DefaultLogLimit
func (r *LogRepository) List(ctx context.Context, source string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if source == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, source, content, created_at FROM logs ORDER BY created_at DESC LIMIT $1
		`, limit)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, source, content, created_at FROM logs WHERE source = $1 ORDER BY created_at DESC LIMIT $2
		`, source, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0)
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return entries, nil
}
