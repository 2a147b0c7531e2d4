package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/store"
)

// Outcome is the result of one reconciliation.
type Outcome string

const (
	OutcomeFirstSync     Outcome = "first_sync"
	OutcomeRemoteAdopted Outcome = "remote_adopted"
	OutcomeLocalPushed   Outcome = "local_pushed"
	OutcomeInSync        Outcome = "in_sync"
)

// Local is the state being synchronized. *store.Store satisfies it.
type Local interface {
	Snapshot() models.Snapshot
	Adopt(ctx context.Context, snap models.Snapshot) (store.State, error)
}

// Status describes the last reconciliation attempt.
type Status struct {
	Key       string     `json:"key"`
	DeviceID  string     `json:"device_id"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	Outcome   Outcome    `json:"outcome,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Reconciler decides between pushing local state and adopting the remote one.
type Reconciler struct {
	local    Local
	remote   Remote
	meta     *Meta
	key      string
	deviceID string
	log      *slog.Logger
	now      func() time.Time

	// run serializes Push, Pull and Reconcile so only one request is in flight.
	run sync.Mutex

	mu     sync.Mutex
	status Status
}

// NewReconciler wires a reconciler for the remote record at key.
func NewReconciler(local Local, remote Remote, kv store.KV, key, deviceID string, log *slog.Logger) *Reconciler {
	return &Reconciler{
		local:    local,
		remote:   remote,
		meta:     NewMeta(kv),
		key:      key,
		deviceID: deviceID,
		log:      log,
		now:      time.Now,
		status:   Status{Key: key, DeviceID: deviceID},
	}
}

// Push writes the local snapshot to the remote key and records the push.
func (r *Reconciler) Push(ctx context.Context) (models.Snapshot, error) {
	r.run.Lock()
	defer r.run.Unlock()
	return r.push(ctx)
}

// Pull reads the remote snapshot. It returns nil when nothing is stored yet.
func (r *Reconciler) Pull(ctx context.Context) (*models.Snapshot, error) {
	r.run.Lock()
	defer r.run.Unlock()
	return r.remote.Get(ctx, r.key)
}

// Reconcile runs one last-write-wins round.
func (r *Reconciler) Reconcile(ctx context.Context) (Outcome, error) {
	r.run.Lock()
	defer r.run.Unlock()

	outcome, err := r.reconcile(ctx)
	r.record(outcome, err)
	return outcome, err
}

// Status returns the state of the last run.
func (r *Reconciler) Status(ctx context.Context) Status {
	r.mu.Lock()
	st := r.status
	r.mu.Unlock()

	if last, err := r.meta.LastSync(ctx); err == nil && !last.IsZero() {
		st.LastSync = &last
	}
	return st
}

func (r *Reconciler) reconcile(ctx context.Context) (Outcome, error) {
	remote, err := r.remote.Get(ctx, r.key)
	if err != nil {
		return "", fmt.Errorf("pulling remote snapshot: %w", err)
	}

	if remote == nil {
		if _, err := r.push(ctx); err != nil {
			return "", err
		}
		return OutcomeFirstSync, nil
	}

	lastSync, err := r.meta.LastSync(ctx)
	if err != nil {
		return "", err
	}

	if remote.Timestamp.After(lastSync) {
		if _, err := r.local.Adopt(ctx, *remote); err != nil {
			return "", fmt.Errorf("adopting remote snapshot: %w", err)
		}
		if err := r.meta.Record(ctx, remote.Timestamp, Fingerprint(r.local.Snapshot())); err != nil {
			return "", err
		}
		r.log.Info("adopted remote snapshot", "key", r.key, "from_device", remote.DeviceID,
			"sessions", len(remote.Sessions), "remote_ts", remote.Timestamp)
		return OutcomeRemoteAdopted, nil
	}

	last, err := r.meta.Fingerprint(ctx)
	if err != nil {
		return "", err
	}
	if Fingerprint(r.local.Snapshot()) == last {
		return OutcomeInSync, nil
	}
	if _, err := r.push(ctx); err != nil {
		return "", err
	}
	return OutcomeLocalPushed, nil
}

// push requires r.run to be held.
func (r *Reconciler) push(ctx context.Context) (models.Snapshot, error) {
	snap := r.local.Snapshot()
	snap.Timestamp = r.now().UTC().Truncate(time.Millisecond)
	snap.DeviceID = r.deviceID
	snap.Version = models.SnapshotVersion

	if err := r.remote.Put(ctx, r.key, snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("pushing snapshot: %w", err)
	}
	if err := r.meta.Record(ctx, snap.Timestamp, Fingerprint(snap)); err != nil {
		return models.Snapshot{}, err
	}
	r.log.Info("pushed snapshot", "key", r.key, "sessions", len(snap.Sessions))
	return snap, nil
}

func (r *Reconciler) record(outcome Outcome, err error) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastRun = &now
	r.status.Outcome = outcome
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
}
