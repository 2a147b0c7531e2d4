// Package stats derives user statistics, personal records and badges from the
// session list. Everything here is a pure function of its inputs; the caller
// supplies "today" so results are reproducible.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/claude/trainsync/internal/models"
)

// Compute rebuilds the derived fields of UserStats from scratch.
// Badges, weight tracking and protein tracking are copied from prev.
func Compute(sessions []models.TrainingSession, prev models.UserStats, today time.Time) models.UserStats {
	out := models.UserStats{
		Badges:  prev.Badges,
		Weight:  prev.Weight,
		Protein: prev.Protein,
	}

	eligible := make([]models.TrainingSession, 0, len(sessions))
	for _, s := range sessions {
		if s.CountsForStats() {
			eligible = append(eligible, s)
		}
	}

	for _, s := range eligible {
		out.TotalSessions++
		out.TotalDuration += s.DurationMinutes()
		out.TotalDistance += s.DistanceKm()
		out.Points += Points(s)
	}

	days := activeDays(eligible, today.Location())
	out.CurrentStreak = currentStreak(days, today)
	out.LongestStreak = longestStreak(days, out.CurrentStreak)
	out.PersonalRecords = PersonalRecords(eligible)

	return out
}

// dayOf truncates t to local midnight in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from b to a. Rounding absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(a.Sub(b).Hours() / 24))
}

// activeDays returns the distinct days with activity, newest first.
func activeDays(sessions []models.TrainingSession, loc *time.Location) []time.Time {
	seen := make(map[time.Time]bool)
	var days []time.Time
	for _, s := range sessions {
		d := dayOf(s.Date, loc)
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// currentStreak walks back from the newest day. The newest day must be today
// or yesterday; each further day must be exactly one day earlier.
func currentStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	if daysBetween(dayOf(today, today.Location()), days[0]) > 1 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// longestStreak finds the longest run of consecutive days, never less than current.
func longestStreak(days []time.Time, current int) int {
	if len(days) == 0 {
		return current
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return max(longest, current)
}
