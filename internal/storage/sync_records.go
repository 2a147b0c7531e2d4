package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SyncRecord is one stored snapshot blob. The server treats Data as opaque JSON.
type SyncRecord struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"-"`
	DeviceID  string    `json:"device_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PutSyncRecord writes the blob under key, replacing the previous one wholesale.
func (db *DB) PutSyncRecord(ctx context.Context, rec SyncRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sync_records (key, data, device_id, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET data = EXCLUDED.data, device_id = EXCLUDED.device_id, updated_at = EXCLUDED.updated_at`,
		rec.Key, rec.Data, rec.DeviceID)
	if err != nil {
		return fmt.Errorf("writing sync record %s: %w", rec.Key, err)
	}
	return nil
}

// GetSyncRecord reads the blob under key. Returns ErrNotFound when nothing was stored yet.
func (db *DB) GetSyncRecord(ctx context.Context, key string) (*SyncRecord, error) {
	rec := SyncRecord{Key: key}
	err := db.Pool.QueryRow(ctx,
		`SELECT data, device_id, updated_at FROM sync_records WHERE key = $1`, key,
	).Scan(&rec.Data, &rec.DeviceID, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading sync record %s: %w", key, err)
	}
	return &rec, nil
}

// DeleteSyncRecord removes the blob under key.
func (db *DB) DeleteSyncRecord(ctx context.Context, key string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sync_records WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting sync record %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
