package stats

import (
	"math"

	"github.com/claude/trainsync/internal/models"
)

// Scoring constants.
const (
	basePoints       = 10
	strengthBonus    = 5
	yogaBonus        = 3
	longSessionBonus = 5
	longSessionMin   = 60
	additionalBonus  = 15
	caloriesPerPoint = 50
)

// Points scores a single session. Bonuses are independent and additive;
// missing or negative numeric fields count as zero.
func Points(s models.TrainingSession) int {
	points := basePoints

	switch s.Type {
	case models.TypeStrength:
		points += strengthBonus
	case models.TypeCardio:
		points += int(math.Floor(s.DistanceKm() / 2))
	case models.TypeSwimming:
		points += int(math.Floor(s.DistanceKm() * 10))
	case models.TypeYoga:
		points += yogaBonus
	}

	if s.DurationMinutes() > longSessionMin {
		points += longSessionBonus
	}
	if s.IsAdditionalWorkout {
		points += additionalBonus
	}
	points += s.CaloriesBurned() / caloriesPerPoint

	return points
}
