package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportLog represents a single activity import run.
type ImportLog struct {
	ID                 int64     `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Source             string    `json:"source"`
	Status             string    `json:"status"`
	ActivitiesReceived int       `json:"activities_received"`
	SessionsAdded      int       `json:"sessions_added"`
	DurationMs         *int      `json:"duration_ms"`
	ErrorMessage       *string   `json:"error_message"`
}

// InsertImportLog records an import run and returns its ID.
func (l *Local) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO import_logs (created_at, source, status, activities_received, sessions_added, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.CreatedAt.UTC(), log.Source, log.Status, log.ActivitiesReceived, log.SessionsAdded,
		log.DurationMs, log.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return res.LastInsertId()
}

// QueryImportLogs returns the most recent import runs, newest first.
func (l *Local) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, source, status, activities_received, sessions_added, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var log ImportLog
		if err := rows.Scan(&log.ID, &log.CreatedAt, &log.Source, &log.Status,
			&log.ActivitiesReceived, &log.SessionsAdded, &log.DurationMs, &log.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, log)
	}
	return result, rows.Err()
}
