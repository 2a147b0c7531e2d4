// Package nutrition validates protein log entries and summarizes daily intake.
package nutrition

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/trainsync/internal/models"
)

// ValidationError reports rejected user input. No record is created when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Amount is a gram amount as typed by the user. It decodes from either a
// JSON number or a JSON string so non-numeric input can be reported instead
// of failing the whole request.
type Amount string

// UnmarshalJSON accepts 25, 25.5 and "25".
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("protein amount: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// Grams parses the amount.
func (a Amount) Grams() (float64, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return 0, &ValidationError{Field: "protein", Message: "amount is required"}
	}
	g, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, &ValidationError{Field: "protein", Message: fmt.Sprintf("%q is not a number", s)}
	}
	if g <= 0 {
		return 0, &ValidationError{Field: "protein", Message: "amount must be positive"}
	}
	return g, nil
}

// EntryInput is the manual-entry form for a protein log row.
type EntryInput struct {
	Food      string     `json:"food"`
	Protein   Amount     `json:"protein"`
	Meal      string     `json:"meal"`
	Notes     string     `json:"notes"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// NewProteinEntry validates in and builds the entry. now is used when no
// timestamp was supplied.
func NewProteinEntry(in EntryInput, now time.Time) (models.ProteinEntry, error) {
	food := strings.TrimSpace(in.Food)
	if food == "" {
		return models.ProteinEntry{}, &ValidationError{Field: "food", Message: "food is required"}
	}
	grams, err := in.Protein.Grams()
	if err != nil {
		return models.ProteinEntry{}, err
	}
	meal := strings.ToLower(strings.TrimSpace(in.Meal))
	if !validMeal(meal) {
		return models.ProteinEntry{}, &ValidationError{Field: "meal", Message: fmt.Sprintf("unknown meal %q", in.Meal)}
	}

	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}
	return models.ProteinEntry{
		ID:        uuid.NewString(),
		Food:      food,
		Protein:   grams,
		Meal:      meal,
		Timestamp: ts,
		Notes:     strings.TrimSpace(in.Notes),
	}, nil
}

func validMeal(m string) bool {
	switch m {
	case models.MealBreakfast, models.MealLunch, models.MealDinner, models.MealSnack:
		return true
	}
	return false
}
