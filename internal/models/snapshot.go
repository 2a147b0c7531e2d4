package models

import "time"

// SnapshotVersion is written into every pushed snapshot.
const SnapshotVersion = "1"

// Snapshot is the unit of synchronization: sessions, stats and the quick check
// travel together and replace each other wholesale.
type Snapshot struct {
	Sessions   []TrainingSession `json:"sessions"`
	UserStats  UserStats         `json:"user_stats"`
	QuickCheck *QuickCheck       `json:"quick_check,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	DeviceID   string            `json:"device_id"`
	Version    string            `json:"version"`
}
