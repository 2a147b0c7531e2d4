package stats

import (
	"sort"

	"github.com/claude/trainsync/internal/models"
)

// PersonalRecords returns the best values among the given sessions:
// longest distance per distance-bearing kind, longest single session, and
// heaviest logged set per exercise. Ties keep the earliest session.
func PersonalRecords(sessions []models.TrainingSession) []models.PersonalRecord {
	best := make(map[string]models.PersonalRecord)

	consider := func(category, unit string, value float64, s models.TrainingSession) {
		if value <= 0 {
			return
		}
		cur, ok := best[category]
		if ok && (value < cur.Value || (value == cur.Value && !s.Date.Before(cur.Date))) {
			return
		}
		best[category] = models.PersonalRecord{
			Category:  category,
			Value:     value,
			Unit:      unit,
			SessionID: s.ID,
			Date:      s.Date,
		}
	}

	for _, s := range sessions {
		if s.Type == models.TypeCardio || s.Type == models.TypeSwimming {
			consider("longest_distance:"+s.Kind(), "km", s.DistanceKm(), s)
		}
		consider("longest_session", "min", float64(s.DurationMinutes()), s)

		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if set.Weight != nil {
					consider("heaviest_set:"+ex.Name, "kg", *set.Weight, s)
				}
			}
		}
	}

	out := make([]models.PersonalRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
