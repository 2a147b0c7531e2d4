// Package store owns the session list and the statistics derived from it.
//
// Every mutation goes through a method on Store, recomputes UserStats
// wholesale, persists the result and only then becomes visible. Mutations
// are serialized, so two callers are strictly ordered.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/stats"
)

// Keys used in the local key-value store.
const (
	KeySessions   = "sessions"
	KeyUserStats  = "user_stats"
	KeyQuickCheck = "quick_check"
)

var (
	// ErrInvalidSession is returned by Update when the session fails the basic checks.
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidEntry is returned for rejected quick checks, weights and goals.
	ErrInvalidEntry = errors.New("invalid entry")
)

// KV is a JSON key-value store. storage.Local satisfies it.
type KV interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	PutJSON(ctx context.Context, key string, v any) error
}

// Backend is the persistence a Store needs: a KV that can also apply several
// writes atomically. A nil value in a batch deletes its key.
type Backend interface {
	KV
	PutJSONBatch(ctx context.Context, entries map[string]any) error
}

// State is what every mutation returns: the session list and the stats
// recomputed from it.
type State struct {
	Sessions []models.TrainingSession `json:"sessions"`
	Stats    models.UserStats         `json:"user_stats"`
}

// Store is the single source of truth for training sessions.
type Store struct {
	kv  Backend
	log *slog.Logger
	now func() time.Time

	mu         sync.Mutex
	sessions   []models.TrainingSession
	stats      models.UserStats
	quickCheck *models.QuickCheck
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, which decides "today" for streaks and badge dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store. Call Load before use.
func New(kv Backend, log *slog.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores persisted state. When no session list has been stored yet,
// seed (if non-nil) provides the initial sessions, which are persisted
// immediately.
func (s *Store) Load(ctx context.Context, seed func() []models.TrainingSession) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []models.TrainingSession
	found, err := s.kv.GetJSON(ctx, KeySessions, &sessions)
	if err != nil {
		return State{}, fmt.Errorf("loading sessions: %w", err)
	}

	var prev models.UserStats
	if _, err := s.kv.GetJSON(ctx, KeyUserStats, &prev); err != nil {
		return State{}, fmt.Errorf("loading stats: %w", err)
	}

	var qc models.QuickCheck
	hasQC, err := s.kv.GetJSON(ctx, KeyQuickCheck, &qc)
	if err != nil {
		return State{}, fmt.Errorf("loading quick check: %w", err)
	}
	if hasQC {
		s.quickCheck = &qc
	}

	if !found && seed != nil {
		sessions = seed()
		s.log.Info("seeded session list from plan", "sessions", len(sessions))
	}

	// Today has moved on since the stats were cached, so streaks are always rebuilt.
	if err := s.commit(ctx, sessions, prev, nil); err != nil {
		return State{}, err
	}
	return s.state(), nil
}

// Sessions returns a deep copy of the session list.
func (s *Store) Sessions() []models.TrainingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSessions(s.sessions)
}

// Session returns the session with the given id.
func (s *Store) Session(id string) (models.TrainingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return models.TrainingSession{}, false
}

// Stats returns the current statistics.
func (s *Store) Stats() models.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// State returns sessions and stats together.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// QuickCheck returns the last daily check-in, or nil.
func (s *Store) QuickCheck() *models.QuickCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quickCheck == nil {
		return nil
	}
	qc := *s.quickCheck
	return &qc
}

// Complete marks a session completed. Unknown ids and sessions that are
// already completed leave the store untouched.
func (s *Store) Complete(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.sessions[i].Completed {
		return s.state(), nil
	}
	next := s.copySessions()
	next[i].Completed = true
	if err := s.commit(ctx, next, s.stats, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// Update replaces the session with the same id, or appends it.
func (s *Store) Update(ctx context.Context, session models.TrainingSession) (State, error) {
	if err := checkSession(session); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copySessions()
	if i := s.indexOf(session.ID); i >= 0 {
		next[i] = session.Clone()
	} else {
		next = append(next, session.Clone())
	}
	if err := s.commit(ctx, next, s.stats, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// Delete removes a session. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.state(), nil
	}
	next := make([]models.TrainingSession, 0, len(s.sessions)-1)
	next = append(next, s.sessions[:i]...)
	next = append(next, s.sessions[i+1:]...)
	if err := s.commit(ctx, next, s.stats, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// ImportBatch appends the sessions whose ids are not present yet, dropping
// duplicates within the batch as well. Sessions Update would reject are
// skipped. It returns how many were added; when that is zero nothing is
// persisted.
func (s *Store) ImportBatch(ctx context.Context, batch []models.TrainingSession) (State, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.sessions)+len(batch))
	for _, existing := range s.sessions {
		seen[existing.ID] = true
	}

	next := s.copySessions()
	added := 0
	for _, in := range batch {
		if seen[in.ID] {
			continue
		}
		if err := checkSession(in); err != nil {
			s.log.Warn("skipping invalid imported session", "id", in.ID, "error", err)
			continue
		}
		seen[in.ID] = true
		next = append(next, in.Clone())
		added++
	}
	if added == 0 {
		return s.state(), 0, nil
	}
	if err := s.commit(ctx, next, s.stats, nil); err != nil {
		return s.state(), 0, err
	}
	return s.state(), added, nil
}

// ToggleExercise flips the completed flag of one checklist item in a
// session's workout plan. Unknown sessions are ignored.
func (s *Store) ToggleExercise(ctx context.Context, id, section string, index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.state(), nil
	}
	if s.sessions[i].WorkoutPlan == nil {
		return s.state(), fmt.Errorf("session %s has no workout plan: %w", id, ErrInvalidEntry)
	}

	next := s.copySessions()
	wp := next[i].WorkoutPlan.Clone()
	items, err := wp.Section(section)
	if err != nil {
		return s.state(), fmt.Errorf("%v: %w", err, ErrInvalidEntry)
	}
	if index < 0 || index >= len(items) {
		return s.state(), fmt.Errorf("exercise index %d out of range: %w", index, ErrInvalidEntry)
	}
	items[index].Completed = !items[index].Completed
	next[i].WorkoutPlan = wp

	if err := s.commit(ctx, next, s.stats, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// Snapshot returns the synchronizable state. Timestamp, device id and
// version are left for the caller.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := models.Snapshot{
		Sessions:  cloneSessions(s.sessions),
		UserStats: s.stats,
	}
	if s.quickCheck != nil {
		qc := *s.quickCheck
		snap.QuickCheck = &qc
	}
	return snap
}

// Adopt replaces sessions, stats and the quick check with the snapshot's.
// The session list is taken as-is; derived stats are recomputed from it
// with the snapshot's badges and tracking data carried over.
func (s *Store) Adopt(ctx context.Context, snap models.Snapshot) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var qc *models.QuickCheck
	extra := map[string]any{KeyQuickCheck: nil}
	if snap.QuickCheck != nil {
		c := *snap.QuickCheck
		qc = &c
		extra[KeyQuickCheck] = c
	}
	if err := s.commit(ctx, cloneSessions(snap.Sessions), snap.UserStats, extra); err != nil {
		return s.state(), err
	}
	s.quickCheck = qc
	return s.state(), nil
}

// commit recomputes stats for sessions, persists both together with any
// extra entries in one batch and swaps them in. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, sessions []models.TrainingSession, prev models.UserStats, extra map[string]any) error {
	if sessions == nil {
		sessions = []models.TrainingSession{}
	}
	now := s.now()
	next := stats.Compute(sessions, prev, now)
	next.Badges = stats.EvaluateBadges(sessions, prev.Badges, now)

	batch := map[string]any{KeySessions: sessions, KeyUserStats: next}
	for k, v := range extra {
		batch[k] = v
	}
	if err := s.kv.PutJSONBatch(ctx, batch); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}

	for _, b := range next.Badges {
		if b.Earned && !hasEarned(prev.Badges, b.ID) {
			s.log.Info("badge earned", "badge", b.ID)
		}
	}

	s.sessions = sessions
	s.stats = next
	return nil
}

func (s *Store) state() State {
	return State{
		Sessions: cloneSessions(s.sessions),
		Stats:    s.stats,
	}
}

// cloneSessions copies sessions deeply enough that callers can mutate the
// result without touching the store. Nil becomes an empty list.
func cloneSessions(in []models.TrainingSession) []models.TrainingSession {
	out := make([]models.TrainingSession, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func (s *Store) copySessions() []models.TrainingSession {
	return append(make([]models.TrainingSession, 0, len(s.sessions)+1), s.sessions...)
}

func (s *Store) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func hasEarned(badges []models.Badge, id string) bool {
	for _, b := range badges {
		if b.ID == id {
			return b.Earned
		}
	}
	return false
}

func checkSession(session models.TrainingSession) error {
	switch {
	case session.ID == "":
		return fmt.Errorf("missing id: %w", ErrInvalidSession)
	case !session.Type.Valid():
		return fmt.Errorf("unknown type %q: %w", session.Type, ErrInvalidSession)
	case session.Duration < 0:
		return fmt.Errorf("negative duration %d: %w", session.Duration, ErrInvalidSession)
	}
	return nil
}
