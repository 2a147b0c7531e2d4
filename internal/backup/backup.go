// Package backup exports the full local state as a JSON document and
// restores it again.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/store"
)

const (
	appName = "trainsync"
	// FormatVersion is written into every exported document.
	FormatVersion = "1"
	// KeyLocalCopy is where SaveLocalCopy keeps its document.
	KeyLocalCopy = "backup"
)

// ErrInvalidBackup is returned when a document cannot be restored.
var ErrInvalidBackup = errors.New("invalid backup")

// ErrNoLocalCopy is returned by RestoreLocalCopy when nothing was saved.
var ErrNoLocalCopy = errors.New("no local backup")

// Document is the downloadable backup file.
type Document struct {
	App        string                   `json:"app"`
	Version    string                   `json:"version"`
	ExportedAt time.Time                `json:"exported_at"`
	Sessions   []models.TrainingSession `json:"sessions"`
	UserStats  models.UserStats         `json:"user_stats"`
	QuickCheck *models.QuickCheck       `json:"quick_check,omitempty"`
}

// State is what backup reads from and restores into. *store.Store satisfies it.
type State interface {
	Snapshot() models.Snapshot
	Adopt(ctx context.Context, snap models.Snapshot) (store.State, error)
}

// Export captures the current state.
func Export(st State, now time.Time) Document {
	snap := st.Snapshot()
	return Document{
		App:        appName,
		Version:    FormatVersion,
		ExportedAt: now.UTC(),
		Sessions:   snap.Sessions,
		UserStats:  snap.UserStats,
		QuickCheck: snap.QuickCheck,
	}
}

// Parse decodes and validates a backup document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks the document header and that session ids are unique.
func (d Document) Validate() error {
	if d.App != appName {
		return fmt.Errorf("%w: not a %s backup", ErrInvalidBackup, appName)
	}
	if d.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidBackup, d.Version)
	}
	seen := make(map[string]bool, len(d.Sessions))
	for _, s := range d.Sessions {
		if s.ID == "" {
			return fmt.Errorf("%w: session without id", ErrInvalidBackup)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate session id %s", ErrInvalidBackup, s.ID)
		}
		if !s.Type.Valid() {
			return fmt.Errorf("%w: session %s has unknown type %q", ErrInvalidBackup, s.ID, s.Type)
		}
		seen[s.ID] = true
	}
	if d.QuickCheck != nil {
		if err := d.QuickCheck.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
		}
	}
	return nil
}

// Restore replaces the current state with the document's.
func Restore(ctx context.Context, st State, doc Document) (store.State, error) {
	if err := doc.Validate(); err != nil {
		return store.State{}, err
	}
	return st.Adopt(ctx, models.Snapshot{
		Sessions:   doc.Sessions,
		UserStats:  doc.UserStats,
		QuickCheck: doc.QuickCheck,
	})
}

// SaveLocalCopy stores the current state as a backup document in kv.
func SaveLocalCopy(ctx context.Context, kv store.KV, st State, now time.Time) (Document, error) {
	doc := Export(st, now)
	if err := kv.PutJSON(ctx, KeyLocalCopy, doc); err != nil {
		return Document{}, fmt.Errorf("saving local backup: %w", err)
	}
	return doc, nil
}

// RestoreLocalCopy restores the document saved by SaveLocalCopy.
func RestoreLocalCopy(ctx context.Context, kv store.KV, st State) (store.State, error) {
	var doc Document
	ok, err := kv.GetJSON(ctx, KeyLocalCopy, &doc)
	if err != nil {
		return store.State{}, fmt.Errorf("reading local backup: %w", err)
	}
	if !ok {
		return store.State{}, ErrNoLocalCopy
	}
	return Restore(ctx, st, doc)
}
