package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/claude/trainsync/internal/models"
)

func TestExport(t *testing.T) {
	dist := 5.0
	start := time.Date(2026, 3, 18, 7, 0, 0, 0, time.UTC)
	sessions := []models.TrainingSession{
		{ID: "w1-d1-0", Type: models.TypeStrength, Title: "Leg day", Description: "Squats and lunges", Duration: 45, Date: start},
		{ID: "w1-d2-0", Type: models.TypeCardio, Title: "Easy run", Duration: 30, Distance: &dist, Notes: "keep it easy", Date: start.AddDate(0, 0, 1)},
	}

	out := Export(sessions, "trainsync.local", start)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	ev := events[0]
	if ev.Id() != "w1-d1-0@trainsync.local" {
		t.Errorf("uid = %s", ev.Id())
	}
	if p := ev.GetProperty(ics.ComponentPropertySummary); p == nil || p.Value != "Leg day" {
		t.Errorf("summary = %+v", p)
	}
	gotStart, err := ev.GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	gotEnd, err := ev.GetEndAt()
	if err != nil {
		t.Fatal(err)
	}
	if !gotStart.Equal(start) || gotEnd.Sub(gotStart) != 45*time.Minute {
		t.Errorf("start %v end %v", gotStart, gotEnd)
	}

	if !strings.Contains(out, "Distance: 5 km") {
		t.Error("distance missing from description")
	}
	if !strings.Contains(out, "Notes: keep it easy") {
		t.Error("notes missing from description")
	}
}

func TestDescribeWithoutOptionals(t *testing.T) {
	got := describe(models.TrainingSession{Duration: 20})
	if got != "Duration: 20 min" {
		t.Errorf("describe = %q", got)
	}
}
