package models

import (
	"fmt"
	"time"
)

// QuickCheck is the daily self-report. Ratings run from 1 to 5.
type QuickCheck struct {
	Date      time.Time `json:"date"`
	Sleep     int       `json:"sleep"`
	Nutrition int       `json:"nutrition"`
	Stress    int       `json:"stress"`
}

// Validate rejects ratings outside 1..5.
func (q QuickCheck) Validate() error {
	for _, r := range []struct {
		name  string
		value int
	}{
		{"sleep", q.Sleep},
		{"nutrition", q.Nutrition},
		{"stress", q.Stress},
	} {
		if r.value < 1 || r.value > 5 {
			return fmt.Errorf("%s rating %d out of range 1-5", r.name, r.value)
		}
	}
	return nil
}

// Meal categories for protein entries.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// ProteinEntry is one nutrition-log row.
type ProteinEntry struct {
	ID        string    `json:"id"`
	Food      string    `json:"food"`
	Protein   float64   `json:"protein"`
	Meal      string    `json:"meal"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}
