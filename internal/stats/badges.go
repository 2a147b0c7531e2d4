package stats

import (
	"time"

	"github.com/claude/trainsync/internal/models"
)

// Badge identifiers.
const (
	BadgeFirstWorkout    = "first_workout"
	BadgeMultiWorkoutDay = "multi_workout_day"
	BadgeTripleThreat    = "triple_threat"
	BadgeEnduranceDay    = "endurance_day"
	BadgeVarietyMaster   = "variety_master"
	BadgeExtraMile       = "extra_mile"
	BadgeCenturion       = "centurion"
	BadgeFiveKSwimmer    = "five_k_swimmer"
)

const (
	multiWorkoutDaySessions = 2
	tripleThreatKinds       = 3
	enduranceDayMinutes     = 180
	varietyMasterKinds      = 10
	extraMileWorkouts       = 50
	centurionSessions       = 100
	fiveKSwimmerKm          = 5.0
)

// DefaultBadges returns the full badge catalogue, none earned.
func DefaultBadges() []models.Badge {
	return []models.Badge{
		{ID: BadgeFirstWorkout, Name: "First Step", Description: "Complete your first session"},
		{ID: BadgeMultiWorkoutDay, Name: "Double Up", Description: "Complete two sessions on the same day"},
		{ID: BadgeTripleThreat, Name: "Triple Threat", Description: "Three different disciplines in one day"},
		{ID: BadgeEnduranceDay, Name: "Endurance Day", Description: "Train 180 minutes or more in one day"},
		{ID: BadgeVarietyMaster, Name: "Variety Master", Description: "Try ten different disciplines"},
		{ID: BadgeExtraMile, Name: "Extra Mile", Description: "Log 50 additional workouts"},
		{ID: BadgeCenturion, Name: "Centurion", Description: "Complete 100 sessions"},
		{ID: BadgeFiveKSwimmer, Name: "Five K Swimmer", Description: "Swim 5 km in total"},
	}
}

// dayBucket is the completed sessions of one calendar day.
type dayBucket struct {
	count   int
	minutes int
	kinds   map[string]bool
}

type badgeInput struct {
	completed []models.TrainingSession
	days      map[time.Time]*dayBucket
}

type badgeRule func(in badgeInput) bool

var badgeRules = map[string]badgeRule{
	BadgeFirstWorkout: func(in badgeInput) bool {
		return len(in.completed) >= 1
	},
	BadgeMultiWorkoutDay: anyDay(func(d *dayBucket) bool {
		return d.count >= multiWorkoutDaySessions
	}),
	BadgeTripleThreat: anyDay(func(d *dayBucket) bool {
		return len(d.kinds) >= tripleThreatKinds
	}),
	BadgeEnduranceDay: anyDay(func(d *dayBucket) bool {
		return d.minutes >= enduranceDayMinutes
	}),
	BadgeVarietyMaster: func(in badgeInput) bool {
		kinds := make(map[string]bool)
		for _, s := range in.completed {
			kinds[s.Kind()] = true
		}
		return len(kinds) >= varietyMasterKinds
	},
	BadgeExtraMile: func(in badgeInput) bool {
		n := 0
		for _, s := range in.completed {
			if s.IsAdditionalWorkout {
				n++
			}
		}
		return n >= extraMileWorkouts
	},
	BadgeCenturion: func(in badgeInput) bool {
		return len(in.completed) >= centurionSessions
	},
	BadgeFiveKSwimmer: func(in badgeInput) bool {
		var km float64
		for _, s := range in.completed {
			if s.Type == models.TypeSwimming {
				km += s.DistanceKm()
			}
		}
		return km >= fiveKSwimmerKm
	},
}

func anyDay(pred func(*dayBucket) bool) badgeRule {
	return func(in badgeInput) bool {
		for _, d := range in.days {
			if pred(d) {
				return true
			}
		}
		return false
	}
}

// EvaluateBadges returns a copy of current with newly satisfied badges marked
// earned at now. Earned badges are never touched again. An empty list starts
// from DefaultBadges; badges with no known rule pass through unchanged.
func EvaluateBadges(sessions []models.TrainingSession, current []models.Badge, now time.Time) []models.Badge {
	if len(current) == 0 {
		current = DefaultBadges()
	}
	out := make([]models.Badge, len(current))
	copy(out, current)

	var in *badgeInput
	for i := range out {
		if out[i].Earned {
			continue
		}
		rule, ok := badgeRules[out[i].ID]
		if !ok {
			continue
		}
		if in == nil {
			in = buildBadgeInput(sessions, now.Location())
		}
		if rule(*in) {
			earned := now
			out[i].Earned = true
			out[i].EarnedDate = &earned
		}
	}
	return out
}

func buildBadgeInput(sessions []models.TrainingSession, loc *time.Location) *badgeInput {
	in := &badgeInput{days: make(map[time.Time]*dayBucket)}
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		in.completed = append(in.completed, s)
		key := dayOf(s.Date, loc)
		d, ok := in.days[key]
		if !ok {
			d = &dayBucket{kinds: make(map[string]bool)}
			in.days[key] = d
		}
		d.count++
		d.minutes += s.DurationMinutes()
		d.kinds[s.Kind()] = true
	}
	return in
}
