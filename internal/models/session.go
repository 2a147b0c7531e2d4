package models

import (
	"fmt"
	"time"
)

// SessionType is the fixed category of a training session.
type SessionType string

const (
	TypeStrength SessionType = "strength"
	TypeCardio   SessionType = "cardio"
	TypeSwimming SessionType = "swimming"
	TypeYoga     SessionType = "yoga"
	TypeRecovery SessionType = "recovery"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	switch t {
	case TypeStrength, TypeCardio, TypeSwimming, TypeYoga, TypeRecovery:
		return true
	}
	return false
}

// Session sources.
const (
	SourcePlan   = "plan"
	SourceManual = "manual"
	SourceStrava = "strava"
)

// TrainingSession is one planned or completed unit of exercise.
type TrainingSession struct {
	ID                  string       `json:"id"`
	Type                SessionType  `json:"type"`
	SubType             string       `json:"subtype,omitempty"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Duration            int          `json:"duration"`
	Distance            *float64     `json:"distance,omitempty"`
	Calories            *int         `json:"calories,omitempty"`
	Completed           bool         `json:"completed"`
	Date                time.Time    `json:"date"`
	Week                int          `json:"week"`
	Day                 int          `json:"day"`
	Notes               string       `json:"notes,omitempty"`
	Exercises           []Exercise   `json:"exercises,omitempty"`
	WorkoutPlan         *WorkoutPlan `json:"workout_plan,omitempty"`
	IsAdditionalWorkout bool         `json:"is_additional_workout,omitempty"`
	ExcludeFromStats    bool         `json:"exclude_from_stats,omitempty"`
	Source              string       `json:"source,omitempty"`
}

// Kind returns the subtype when set, otherwise the type. Badge variety rules count kinds.
func (s TrainingSession) Kind() string {
	if s.SubType != "" {
		return s.SubType
	}
	return string(s.Type)
}

// DistanceKm returns the distance, treating a missing or negative value as zero.
func (s TrainingSession) DistanceKm() float64 {
	if s.Distance == nil || *s.Distance < 0 {
		return 0
	}
	return *s.Distance
}

// CaloriesBurned returns the calories, treating a missing or negative value as zero.
func (s TrainingSession) CaloriesBurned() int {
	if s.Calories == nil || *s.Calories < 0 {
		return 0
	}
	return *s.Calories
}

// DurationMinutes returns the duration, treating a negative value as zero.
func (s TrainingSession) DurationMinutes() int {
	if s.Duration < 0 {
		return 0
	}
	return s.Duration
}

// CountsForStats reports whether the session contributes to aggregate statistics.
func (s TrainingSession) CountsForStats() bool {
	return s.Completed && !s.ExcludeFromStats
}

// Clone returns a copy that shares no pointers or slices with s.
func (s TrainingSession) Clone() TrainingSession {
	s.Distance = clonePtr(s.Distance)
	s.Calories = clonePtr(s.Calories)
	if s.Exercises != nil {
		ex := make([]Exercise, len(s.Exercises))
		for i, e := range s.Exercises {
			ex[i] = Exercise{Name: e.Name}
			if e.Sets != nil {
				ex[i].Sets = make([]ExerciseSet, len(e.Sets))
				for j, set := range e.Sets {
					ex[i].Sets[j] = ExerciseSet{
						Reps:     clonePtr(set.Reps),
						Weight:   clonePtr(set.Weight),
						Time:     clonePtr(set.Time),
						Distance: clonePtr(set.Distance),
					}
				}
			}
		}
		s.Exercises = ex
	}
	s.WorkoutPlan = s.WorkoutPlan.Clone()
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Exercise is a logged exercise with its ordered sets.
type Exercise struct {
	Name string        `json:"name"`
	Sets []ExerciseSet `json:"sets"`
}

// ExerciseSet is one set of an exercise. All fields are optional.
type ExerciseSet struct {
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Time     *int     `json:"time,omitempty"` // seconds
	Distance *float64 `json:"distance,omitempty"`
}

// Workout plan sections.
const (
	SectionWarmUp   = "warm_up"
	SectionMain     = "main"
	SectionCooldown = "cooldown"
)

// WorkoutPlan is the structured checklist attached to a planned session.
type WorkoutPlan struct {
	WarmUp   []PlanExercise `json:"warm_up,omitempty"`
	Main     []PlanExercise `json:"main,omitempty"`
	Cooldown []PlanExercise `json:"cooldown,omitempty"`
}

// PlanExercise is one checklist item within a workout plan section.
type PlanExercise struct {
	Name      string `json:"name"`
	Sets      int    `json:"sets,omitempty"`
	Reps      string `json:"reps,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `json:"completed"`
}

// Section returns the exercise list for the named section.
func (p *WorkoutPlan) Section(name string) ([]PlanExercise, error) {
	switch name {
	case SectionWarmUp:
		return p.WarmUp, nil
	case SectionMain:
		return p.Main, nil
	case SectionCooldown:
		return p.Cooldown, nil
	}
	return nil, fmt.Errorf("unknown workout plan section %q", name)
}

// Clone returns a deep copy of the plan.
func (p *WorkoutPlan) Clone() *WorkoutPlan {
	if p == nil {
		return nil
	}
	return &WorkoutPlan{
		WarmUp:   append([]PlanExercise(nil), p.WarmUp...),
		Main:     append([]PlanExercise(nil), p.Main...),
		Cooldown: append([]PlanExercise(nil), p.Cooldown...),
	}
}
