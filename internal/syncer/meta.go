package syncer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/store"
)

const (
	keyLastSync    = "last_sync"
	keyFingerprint = "sync_fingerprint"
)

// Fingerprint summarizes the local state cheaply enough to detect changes
// since the last push: session count, completed count, the reported
// total-sessions stat and the sorted session ids.
func Fingerprint(snap models.Snapshot) string {
	ids := make([]string, 0, len(snap.Sessions))
	completed := 0
	for _, s := range snap.Sessions {
		ids = append(ids, s.ID)
		if s.Completed {
			completed++
		}
	}
	sort.Strings(ids)
	return fmt.Sprintf("%d|%d|%d|%s", len(snap.Sessions), completed, snap.UserStats.TotalSessions, strings.Join(ids, ","))
}

// Meta is the locally persisted sync bookkeeping.
type Meta struct {
	kv store.KV
}

// NewMeta wraps kv.
func NewMeta(kv store.KV) *Meta {
	return &Meta{kv: kv}
}

// LastSync returns the timestamp of the last push or adoption, zero if none.
func (m *Meta) LastSync(ctx context.Context) (time.Time, error) {
	var t time.Time
	if _, err := m.kv.GetJSON(ctx, keyLastSync, &t); err != nil {
		return time.Time{}, fmt.Errorf("reading last sync: %w", err)
	}
	return t, nil
}

// Fingerprint returns the fingerprint recorded at the last sync.
func (m *Meta) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	if _, err := m.kv.GetJSON(ctx, keyFingerprint, &fp); err != nil {
		return "", fmt.Errorf("reading fingerprint: %w", err)
	}
	return fp, nil
}

// Record stores the sync time and fingerprint together.
func (m *Meta) Record(ctx context.Context, at time.Time, fingerprint string) error {
	if err := m.kv.PutJSON(ctx, keyLastSync, at); err != nil {
		return fmt.Errorf("writing last sync: %w", err)
	}
	if err := m.kv.PutJSON(ctx, keyFingerprint, fingerprint); err != nil {
		return fmt.Errorf("writing fingerprint: %w", err)
	}
	return nil
}
