// Package plan expands the weekly training template into dated sessions and
// maps calendar dates onto plan weeks.
package plan

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/claude/trainsync/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_plan.yaml
var defaultPlan []byte

// Template is a weekly pattern repeated across the plan, with per-week progression.
type Template struct {
	Name  string        `yaml:"name"`
	Weeks int           `yaml:"weeks"`
	Days  []TemplateDay `yaml:"days"`
}

// TemplateDay is one planned session within the weekly pattern.
type TemplateDay struct {
	Day         int                   `yaml:"day"`
	Type        models.SessionType    `yaml:"type"`
	SubType     string                `yaml:"subtype"`
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Duration    int                   `yaml:"duration"`
	Progression int                   `yaml:"progression"`          // minutes added per week
	Distance    float64               `yaml:"distance"`
	DistanceInc float64               `yaml:"distance_progression"`
	WarmUp      []models.PlanExercise `yaml:"warm_up"`
	Main        []models.PlanExercise `yaml:"main"`
	Cooldown    []models.PlanExercise `yaml:"cooldown"`
}

// LoadTemplate reads a template from path, or the embedded default when path is empty.
func LoadTemplate(path string) (*Template, error) {
	data := defaultPlan
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading plan template: %w", err)
		}
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes and checks a YAML template.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing plan template: %w", err)
	}
	if len(t.Days) == 0 {
		return nil, fmt.Errorf("plan template %q has no days", t.Name)
	}
	for i, d := range t.Days {
		if d.Day < 1 || d.Day > 7 {
			return nil, fmt.Errorf("plan template day %d: weekday %d out of range 1-7", i, d.Day)
		}
		if !d.Type.Valid() {
			return nil, fmt.Errorf("plan template day %d: unknown type %q", i, d.Type)
		}
	}
	return &t, nil
}

// Sessions expands the template over the anchor's weeks. Session ids are
// stable ("w<week>-d<day>-<n>") so re-seeding never duplicates.
func (t *Template) Sessions(a Anchor) []models.TrainingSession {
	var out []models.TrainingSession
	for week := 1; week <= a.Weeks; week++ {
		perDay := map[int]int{}
		for _, d := range t.Days {
			n := perDay[d.Day]
			perDay[d.Day]++

			s := models.TrainingSession{
				ID:          fmt.Sprintf("w%d-d%d-%d", week, d.Day, n),
				Type:        d.Type,
				SubType:     d.SubType,
				Title:       d.Title,
				Description: d.Description,
				Duration:    d.Duration + d.Progression*(week-1),
				Date:        a.DateOf(week, d.Day),
				Week:        week,
				Day:         d.Day,
				Source:      models.SourcePlan,
			}
			if d.Distance > 0 {
				km := d.Distance + d.DistanceInc*float64(week-1)
				s.Distance = &km
			}
			if len(d.WarmUp)+len(d.Main)+len(d.Cooldown) > 0 {
				s.WorkoutPlan = (&models.WorkoutPlan{WarmUp: d.WarmUp, Main: d.Main, Cooldown: d.Cooldown}).Clone()
			}
			out = append(out, s)
		}
	}
	return out
}
