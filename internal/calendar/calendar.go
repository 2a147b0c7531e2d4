// Package calendar renders the session list as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/claude/trainsync/internal/models"
)

const productID = "-//trainsync//training plan//EN"

// Export returns an RFC 5545 calendar with one event per session. Event
// UIDs are "<session id>@<domain>" so re-imports update rather than duplicate.
func Export(sessions []models.TrainingSession, domain string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, s := range sessions {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", s.ID, domain))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(s.Date)
		ev.SetEndAt(s.Date.Add(time.Duration(s.DurationMinutes()) * time.Minute))
		ev.SetSummary(s.Title)
		ev.SetDescription(describe(s))
	}
	return cal.Serialize()
}

func describe(s models.TrainingSession) string {
	var lines []string
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	lines = append(lines, fmt.Sprintf("Duration: %d min", s.DurationMinutes()))
	if d := s.DistanceKm(); d > 0 {
		lines = append(lines, fmt.Sprintf("Distance: %g km", d))
	}
	if s.Notes != "" {
		lines = append(lines, "Notes: "+s.Notes)
	}
	return strings.Join(lines, "\n")
}
