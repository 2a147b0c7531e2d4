package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Local is the device-side key-value store. Keys are namespaced so several
// profiles can share one state file; values are JSON documents.
type Local struct {
	db        *sql.DB
	namespace string
}

// OpenLocal opens (or creates) the SQLite state database at dir/state.db.
func OpenLocal(dir, namespace string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS import_logs (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at          TIMESTAMP NOT NULL,
			source              TEXT NOT NULL,
			status              TEXT NOT NULL,
			activities_received INTEGER NOT NULL DEFAULT 0,
			sessions_added      INTEGER NOT NULL DEFAULT 0,
			duration_ms         INTEGER,
			error_message       TEXT
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating state tables: %w", err)
		}
	}

	return &Local{db: db, namespace: namespace}, nil
}

// Close closes the state database.
func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) fullKey(key string) string {
	if l.namespace == "" {
		return key
	}
	return l.namespace + ":" + key
}

// Get returns the raw value for key. ok is false when the key is absent.
func (l *Local) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var s string
	err = l.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, l.fullKey(key)).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return []byte(s), true, nil
}

// Put stores value under key, replacing any previous value.
func (l *Local) Put(ctx context.Context, key string, value []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		l.fullKey(key), string(value))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, l.fullKey(key)); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys in this namespace, without the namespace prefix.
func (l *Local) Keys(ctx context.Context) ([]string, error) {
	prefix := l.fullKey("")
	rows, err := l.db.QueryContext(ctx, `SELECT key FROM kv WHERE key LIKE ? ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, rows.Err()
}

// GetJSON decodes the value under key into v. ok is false when the key is absent.
func (l *Local) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := l.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func (l *Local) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return l.Put(ctx, key, data)
}

// PutJSONBatch writes all entries in a single transaction, so either every
// key is updated or none is. A nil value deletes its key.
func (l *Local) PutJSONBatch(ctx context.Context, entries map[string]any) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	defer tx.Rollback()

	for key, v := range entries {
		if v == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, l.fullKey(key)); err != nil {
				return fmt.Errorf("deleting %s: %w", key, err)
			}
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			l.fullKey(key), string(data)); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}
