package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/claude/trainsync/internal/models"
)

func badgeByID(t *testing.T, badges []models.Badge, id string) models.Badge {
	t.Helper()
	for _, b := range badges {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("badge %q not found", id)
	return models.Badge{}
}

// TestEnduranceDayNeedsAllThreeSessions sums 70+60+55 minutes on one day;
// the badge must not fire until the third session is present.
func TestEnduranceDayNeedsAllThreeSessions(t *testing.T) {
	a := completedOn("a", 0, models.TypeCardio, 70)
	b := completedOn("b", 0, models.TypeStrength, 60)
	c := completedOn("c", 0, models.TypeYoga, 55)

	badges := EvaluateBadges([]models.TrainingSession{a, b}, nil, testToday)
	if badgeByID(t, badges, BadgeEnduranceDay).Earned {
		t.Fatal("endurance day earned with only 130 minutes")
	}

	badges = EvaluateBadges([]models.TrainingSession{a, b, c}, badges, testToday)
	got := badgeByID(t, badges, BadgeEnduranceDay)
	if !got.Earned {
		t.Fatal("endurance day not earned with 185 minutes")
	}
	if got.EarnedDate == nil || !got.EarnedDate.Equal(testToday) {
		t.Errorf("EarnedDate = %v, want %v", got.EarnedDate, testToday)
	}
	if !badgeByID(t, badges, BadgeTripleThreat).Earned {
		t.Error("three kinds on one day should earn triple threat")
	}
	if !badgeByID(t, badges, BadgeMultiWorkoutDay).Earned {
		t.Error("three sessions on one day should earn multi workout day")
	}
}

// TestBadgeLatch verifies earned badges survive a shrinking session list and
// keep their original earned date.
func TestBadgeLatch(t *testing.T) {
	sessions := []models.TrainingSession{
		completedOn("a", 0, models.TypeCardio, 30),
		completedOn("b", 0, models.TypeCardio, 30),
	}
	first := EvaluateBadges(sessions, nil, testToday)
	if !badgeByID(t, first, BadgeMultiWorkoutDay).Earned {
		t.Fatal("multi workout day not earned")
	}

	later := testToday.Add(48 * time.Hour)
	second := EvaluateBadges(nil, first, later)
	got := badgeByID(t, second, BadgeMultiWorkoutDay)
	if !got.Earned {
		t.Fatal("earned badge was reset")
	}
	if !got.EarnedDate.Equal(testToday) {
		t.Errorf("EarnedDate moved to %v", got.EarnedDate)
	}
	if !badgeByID(t, second, BadgeFirstWorkout).Earned {
		t.Error("first workout badge was reset")
	}
}

// TestEvaluateBadgesDoesNotMutateInput guards the copy-on-write contract.
func TestEvaluateBadgesDoesNotMutateInput(t *testing.T) {
	current := DefaultBadges()
	EvaluateBadges([]models.TrainingSession{completedOn("a", 0, models.TypeCardio, 30)}, current, testToday)
	for _, b := range current {
		if b.Earned {
			t.Errorf("input badge %q mutated", b.ID)
		}
	}
}

func TestVarietyMaster(t *testing.T) {
	var sessions []models.TrainingSession
	for i := range 9 {
		s := completedOn(fmt.Sprintf("s%d", i), i, models.TypeCardio, 30)
		s.SubType = fmt.Sprintf("kind-%d", i)
		sessions = append(sessions, s)
	}
	badges := EvaluateBadges(sessions, nil, testToday)
	if badgeByID(t, badges, BadgeVarietyMaster).Earned {
		t.Fatal("variety master earned with nine kinds")
	}

	// A session without subtype counts by its type.
	sessions = append(sessions, completedOn("yoga", 10, models.TypeYoga, 30))
	badges = EvaluateBadges(sessions, badges, testToday)
	if !badgeByID(t, badges, BadgeVarietyMaster).Earned {
		t.Error("variety master not earned with ten kinds")
	}
}

func TestExtraMile(t *testing.T) {
	var sessions []models.TrainingSession
	for i := range 50 {
		s := completedOn(fmt.Sprintf("x%d", i), i%7, models.TypeCardio, 20)
		s.IsAdditionalWorkout = i != 0
		sessions = append(sessions, s)
	}
	badges := EvaluateBadges(sessions, nil, testToday)
	if badgeByID(t, badges, BadgeExtraMile).Earned {
		t.Fatal("extra mile earned with 49 additional workouts")
	}
	sessions[0].IsAdditionalWorkout = true
	badges = EvaluateBadges(sessions, badges, testToday)
	if !badgeByID(t, badges, BadgeExtraMile).Earned {
		t.Error("extra mile not earned with 50 additional workouts")
	}
}

// TestIncompleteSessionsIgnored checks that planned sessions never earn badges.
func TestIncompleteSessionsIgnored(t *testing.T) {
	a := completedOn("a", 0, models.TypeCardio, 200)
	a.Completed = false
	badges := EvaluateBadges([]models.TrainingSession{a}, nil, testToday)
	for _, b := range badges {
		if b.Earned {
			t.Errorf("badge %q earned from an incomplete session", b.ID)
		}
	}
}

func TestUnknownBadgePassesThrough(t *testing.T) {
	custom := []models.Badge{{ID: "legacy", Name: "Legacy"}}
	got := EvaluateBadges([]models.TrainingSession{completedOn("a", 0, models.TypeCardio, 30)}, custom, testToday)
	if len(got) != 1 || got[0].Earned {
		t.Errorf("unknown badge changed: %+v", got)
	}
}
