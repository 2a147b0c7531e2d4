package nutrition

import (
	"math"
	"time"

	"github.com/claude/trainsync/internal/models"
)

// DaySummary is the protein intake for one calendar day.
type DaySummary struct {
	Date      string             `json:"date"`
	Total     float64            `json:"total"`
	Goal      float64            `json:"goal"`
	Remaining float64            `json:"remaining"`
	Percent   int                `json:"percent"`
	ByMeal    map[string]float64 `json:"by_meal"`
	Entries   int                `json:"entries"`
}

// DailyTotals sums the entries falling on day (in day's location).
func DailyTotals(pt *models.ProteinTracking, day time.Time) DaySummary {
	loc := day.Location()
	y, m, d := day.Date()
	sum := DaySummary{
		Date: day.Format("2006-01-02"),
		ByMeal: map[string]float64{
			models.MealBreakfast: 0,
			models.MealLunch:     0,
			models.MealDinner:    0,
			models.MealSnack:     0,
		},
	}
	if pt == nil {
		return sum
	}

	sum.Goal = pt.DailyGoal
	for _, e := range pt.Entries {
		ey, em, ed := e.Timestamp.In(loc).Date()
		if ey != y || em != m || ed != d {
			continue
		}
		sum.Total += e.Protein
		sum.ByMeal[e.Meal] += e.Protein
		sum.Entries++
	}
	sum.Total = math.Round(sum.Total*10) / 10
	if sum.Goal > 0 {
		sum.Remaining = math.Max(0, math.Round((sum.Goal-sum.Total)*10)/10)
		sum.Percent = int(math.Round(sum.Total / sum.Goal * 100))
	}
	return sum
}
