package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/trainsync/internal/models"
)

// SetQuickCheck stores today's self-report, replacing the previous one.
func (s *Store) SetQuickCheck(ctx context.Context, qc models.QuickCheck) (models.QuickCheck, error) {
	if err := qc.Validate(); err != nil {
		return models.QuickCheck{}, fmt.Errorf("%v: %w", err, ErrInvalidEntry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if qc.Date.IsZero() {
		qc.Date = s.now()
	}
	if err := s.kv.PutJSON(ctx, KeyQuickCheck, qc); err != nil {
		return models.QuickCheck{}, fmt.Errorf("persisting quick check: %w", err)
	}
	s.quickCheck = &qc
	return qc, nil
}

// AddProtein appends a validated protein entry to the nutrition log.
func (s *Store) AddProtein(ctx context.Context, entry models.ProteinEntry) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.stats
	pt := cloneProtein(prev.Protein)
	pt.Entries = append(pt.Entries, entry)
	prev.Protein = pt

	if err := s.commit(ctx, s.sessions, prev, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// DeleteProtein removes a protein entry by id. Unknown ids are ignored.
func (s *Store) DeleteProtein(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats.Protein == nil {
		return s.state(), nil
	}
	pt := cloneProtein(s.stats.Protein)
	kept := pt.Entries[:0]
	for _, e := range pt.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.stats.Protein.Entries) {
		return s.state(), nil
	}
	pt.Entries = kept

	prev := s.stats
	prev.Protein = pt
	if err := s.commit(ctx, s.sessions, prev, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// SetProteinGoal sets the daily protein target in grams.
func (s *Store) SetProteinGoal(ctx context.Context, grams float64) (State, error) {
	if grams <= 0 {
		return s.State(), fmt.Errorf("protein goal must be positive: %w", ErrInvalidEntry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.stats
	pt := cloneProtein(prev.Protein)
	pt.DailyGoal = grams
	prev.Protein = pt
	if err := s.commit(ctx, s.sessions, prev, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// LogWeight records a body-weight measurement. A second measurement on the
// same calendar day replaces the first. The first measurement ever logged
// becomes the start weight.
func (s *Store) LogWeight(ctx context.Context, date time.Time, kg float64) (State, error) {
	if kg <= 0 {
		return s.State(), fmt.Errorf("weight must be positive: %w", ErrInvalidEntry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if date.IsZero() {
		date = s.now()
	}
	wt := cloneWeight(s.stats.Weight)
	replaced := false
	for i := range wt.Entries {
		if sameDay(wt.Entries[i].Date, date) {
			wt.Entries[i] = models.WeightEntry{Date: date, Weight: kg}
			replaced = true
			break
		}
	}
	if !replaced {
		wt.Entries = append(wt.Entries, models.WeightEntry{Date: date, Weight: kg})
	}
	sort.SliceStable(wt.Entries, func(i, j int) bool {
		return wt.Entries[i].Date.Before(wt.Entries[j].Date)
	})
	if wt.StartWeight == nil {
		start := wt.Entries[0].Weight
		wt.StartWeight = &start
	}

	prev := s.stats
	prev.Weight = wt
	if err := s.commit(ctx, s.sessions, prev, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

// SetWeightGoal sets the target body weight in kilograms.
func (s *Store) SetWeightGoal(ctx context.Context, kg float64) (State, error) {
	if kg <= 0 {
		return s.State(), fmt.Errorf("goal weight must be positive: %w", ErrInvalidEntry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wt := cloneWeight(s.stats.Weight)
	wt.GoalWeight = &kg
	prev := s.stats
	prev.Weight = wt
	if err := s.commit(ctx, s.sessions, prev, nil); err != nil {
		return s.state(), err
	}
	return s.state(), nil
}

func cloneProtein(p *models.ProteinTracking) *models.ProteinTracking {
	if p == nil {
		return &models.ProteinTracking{Entries: []models.ProteinEntry{}}
	}
	return &models.ProteinTracking{
		DailyGoal: p.DailyGoal,
		Entries:   append([]models.ProteinEntry(nil), p.Entries...),
	}
}

func cloneWeight(w *models.WeightTracking) *models.WeightTracking {
	if w == nil {
		return &models.WeightTracking{Entries: []models.WeightEntry{}}
	}
	return &models.WeightTracking{
		StartWeight: w.StartWeight,
		GoalWeight:  w.GoalWeight,
		Entries:     append([]models.WeightEntry(nil), w.Entries...),
	}
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
