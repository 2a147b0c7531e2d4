package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/claude/trainsync/internal/models"
)

var testToday = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

func completedOn(id string, daysAgo int, typ models.SessionType, minutes int) models.TrainingSession {
	return models.TrainingSession{
		ID:        id,
		Type:      typ,
		Duration:  minutes,
		Completed: true,
		Date:      time.Date(2026, 3, 18-daysAgo, 9, 0, 0, 0, time.UTC),
	}
}

// TestComputeTotals verifies that only completed, non-excluded sessions count.
func TestComputeTotals(t *testing.T) {
	run := completedOn("run", 0, models.TypeCardio, 40)
	run.Distance = floatPtr(8.25)
	excluded := completedOn("excluded", 0, models.TypeCardio, 90)
	excluded.ExcludeFromStats = true
	excluded.Distance = floatPtr(20)
	planned := completedOn("planned", 0, models.TypeStrength, 45)
	planned.Completed = false

	sessions := []models.TrainingSession{
		run,
		completedOn("lift", 1, models.TypeStrength, 50),
		excluded,
		planned,
	}

	got := Compute(sessions, models.UserStats{}, testToday)
	if got.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", got.TotalSessions)
	}
	if got.TotalDuration != 90 {
		t.Errorf("TotalDuration = %d, want 90", got.TotalDuration)
	}
	if got.TotalDistance != 8.25 {
		t.Errorf("TotalDistance = %v, want 8.25", got.TotalDistance)
	}
	// run: 10 + floor(8.25/2)=4 ; lift: 10 + 5
	if got.Points != 29 {
		t.Errorf("Points = %d, want 29", got.Points)
	}
}

// TestComputeDistanceUnrounded checks that distance is summed as-is.
func TestComputeDistanceUnrounded(t *testing.T) {
	swim := completedOn("swim", 0, models.TypeSwimming, 30)
	swim.Distance = floatPtr(1.005)
	got := Compute([]models.TrainingSession{swim}, models.UserStats{}, testToday)
	if got.TotalDistance != 1.005 {
		t.Errorf("TotalDistance = %v, want 1.005", got.TotalDistance)
	}
}

// TestComputeStreakThreeDays covers activity on today, yesterday and the day
// before, then adds a two-day gap below the earliest day.
func TestComputeStreakThreeDays(t *testing.T) {
	sessions := []models.TrainingSession{
		completedOn("a", 0, models.TypeCardio, 30),
		completedOn("b", 1, models.TypeCardio, 30),
		completedOn("c", 2, models.TypeCardio, 30),
	}
	got := Compute(sessions, models.UserStats{}, testToday)
	if got.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", got.CurrentStreak)
	}

	sessions = append(sessions, completedOn("d", 4, models.TypeCardio, 30))
	got = Compute(sessions, models.UserStats{}, testToday)
	if got.CurrentStreak != 3 {
		t.Errorf("CurrentStreak with gap = %d, want 3", got.CurrentStreak)
	}
	if got.LongestStreak != 3 {
		t.Errorf("LongestStreak with gap = %d, want 3", got.LongestStreak)
	}
}

func TestComputeStreakEdges(t *testing.T) {
	tests := []struct {
		name        string
		daysAgo     []int
		wantCurrent int
		wantLongest int
	}{
		{"no sessions", nil, 0, 0},
		{"only yesterday", []int{1}, 1, 1},
		{"stale run", []int{2, 3, 4, 5}, 0, 4},
		{"two sessions same day", []int{0, 0}, 1, 1},
		{"older run is longer", []int{0, 1, 5, 6, 7, 8}, 2, 4},
		{"today and yesterday", []int{0, 1}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions []models.TrainingSession
			for i, d := range tt.daysAgo {
				sessions = append(sessions, completedOn(string(rune('a'+i)), d, models.TypeYoga, 20))
			}
			got := Compute(sessions, models.UserStats{}, testToday)
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
		})
	}
}

// TestComputeUsesLocalDays checks that day bucketing follows today's location:
// 23:30 and 00:30 local are different days even though they are an hour apart.
func TestComputeUsesLocalDays(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	today := time.Date(2026, 3, 18, 12, 0, 0, 0, loc)
	sessions := []models.TrainingSession{
		{ID: "late", Type: models.TypeCardio, Completed: true, Date: time.Date(2026, 3, 17, 23, 30, 0, 0, loc)},
		{ID: "early", Type: models.TypeCardio, Completed: true, Date: time.Date(2026, 3, 17, 22, 30, 0, 0, time.UTC)},
	}
	got := Compute(sessions, models.UserStats{}, today)
	if got.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got.CurrentStreak)
	}
}

// TestComputeIdempotent recomputes twice and compares serialized output.
func TestComputeIdempotent(t *testing.T) {
	run := completedOn("run", 0, models.TypeCardio, 65)
	run.Distance = floatPtr(12)
	lift := completedOn("lift", 3, models.TypeStrength, 50)
	lift.Exercises = []models.Exercise{{Name: "Squat", Sets: []models.ExerciseSet{{Weight: floatPtr(100)}, {Weight: floatPtr(110)}}}}
	sessions := []models.TrainingSession{run, lift, completedOn("swim", 1, models.TypeSwimming, 30)}

	prev := models.UserStats{Protein: &models.ProteinTracking{DailyGoal: 120}}
	a, err := json.Marshal(Compute(sessions, prev, testToday))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(Compute(sessions, prev, testToday))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("recompute differs:\n%s\n%s", a, b)
	}
}

// TestComputeCarriesUserEnteredState verifies protein, weight and badges survive recomputation.
func TestComputeCarriesUserEnteredState(t *testing.T) {
	prev := models.UserStats{
		TotalSessions: 99,
		Badges:        []models.Badge{{ID: BadgeFirstWorkout, Earned: true}},
		Weight:        &models.WeightTracking{Entries: []models.WeightEntry{{Weight: 80}}},
		Protein:       &models.ProteinTracking{DailyGoal: 140},
	}
	got := Compute(nil, prev, testToday)
	if got.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d, want 0 (derived, not carried)", got.TotalSessions)
	}
	if len(got.Badges) != 1 || got.Weight == nil || got.Protein == nil || got.Protein.DailyGoal != 140 {
		t.Errorf("user-entered state not carried: %+v", got)
	}
}

func TestPersonalRecords(t *testing.T) {
	long := completedOn("long", 5, models.TypeCardio, 100)
	long.SubType = "running"
	long.Distance = floatPtr(21.1)
	short := completedOn("short", 2, models.TypeCardio, 30)
	short.SubType = "running"
	short.Distance = floatPtr(5)
	lift := completedOn("lift", 1, models.TypeStrength, 45)
	lift.Exercises = []models.Exercise{{Name: "Deadlift", Sets: []models.ExerciseSet{{Weight: floatPtr(140)}, {Reps: intPtr(5)}}}}

	records := PersonalRecords([]models.TrainingSession{short, long, lift})
	byCategory := map[string]models.PersonalRecord{}
	for _, r := range records {
		byCategory[r.Category] = r
	}

	if r := byCategory["longest_distance:running"]; r.SessionID != "long" || r.Value != 21.1 {
		t.Errorf("longest run = %+v, want session long 21.1", r)
	}
	if r := byCategory["longest_session"]; r.SessionID != "long" || r.Value != 100 {
		t.Errorf("longest session = %+v", r)
	}
	if r := byCategory["heaviest_set:Deadlift"]; r.Value != 140 || r.Unit != "kg" {
		t.Errorf("heaviest deadlift = %+v", r)
	}
}
