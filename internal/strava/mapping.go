package strava

import (
	"fmt"
	"math"

	"github.com/claude/trainsync/internal/models"
	"github.com/claude/trainsync/internal/plan"
)

type kind struct {
	Type    models.SessionType
	SubType string
}

// sportTypes maps Strava sport types onto session types. Anything missing is cardio.
var sportTypes = map[string]kind{
	"Run":              {models.TypeCardio, "running"},
	"TrailRun":         {models.TypeCardio, "running"},
	"VirtualRun":       {models.TypeCardio, "running"},
	"Ride":             {models.TypeCardio, "cycling"},
	"VirtualRide":      {models.TypeCardio, "cycling"},
	"EBikeRide":        {models.TypeCardio, "cycling"},
	"MountainBikeRide": {models.TypeCardio, "cycling"},
	"GravelRide":       {models.TypeCardio, "cycling"},
	"Walk":             {models.TypeCardio, "walking"},
	"Hike":             {models.TypeCardio, "hiking"},
	"Rowing":           {models.TypeCardio, "rowing"},
	"Elliptical":       {models.TypeCardio, "elliptical"},
	"Swim":             {models.TypeSwimming, ""},
	"WeightTraining":   {models.TypeStrength, "weights"},
	"Crossfit":         {models.TypeStrength, "crossfit"},
	"Workout":          {models.TypeStrength, "workout"},
	"Yoga":             {models.TypeYoga, ""},
	"Pilates":          {models.TypeYoga, "pilates"},
}

func lookupKind(a Activity) kind {
	name := a.SportType
	if name == "" {
		name = a.Type
	}
	if k, ok := sportTypes[name]; ok {
		return k
	}
	return kind{Type: models.TypeCardio}
}

// SessionID is the store id for a Strava activity.
func SessionID(activityID int64) string {
	return fmt.Sprintf("strava-%d", activityID)
}

// MapActivity converts an activity into a completed session. The week is
// derived from the plan anchor and clamped to the plan's range.
func MapActivity(a Activity, anchor plan.Anchor) models.TrainingSession {
	k := lookupKind(a)
	date := a.StartDate.In(anchor.Start.Location())

	s := models.TrainingSession{
		ID:          SessionID(a.ID),
		Type:        k.Type,
		SubType:     k.SubType,
		Title:       a.Name,
		Description: a.Description,
		Duration:    int(math.Round(float64(a.MovingTime) / 60)),
		Completed:   true,
		Date:        date,
		Week:        anchor.WeekOf(date),
		Day:         plan.Weekday(date),
		Source:      models.SourceStrava,
	}
	if s.Title == "" {
		s.Title = "Strava activity"
	}
	if s.Description == "" {
		s.Description = "Imported from Strava"
	}
	if a.Distance > 0 {
		km := math.Round(a.Distance/10) / 100
		s.Distance = &km
	}
	if a.Calories != nil && *a.Calories > 0 {
		c := int(math.Round(*a.Calories))
		s.Calories = &c
	}
	return s
}
