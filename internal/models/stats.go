package models

import "time"

// UserStats is derived from the session list and cached alongside it.
// Weight and protein tracking are user-entered and carried across recomputation.
type UserStats struct {
	TotalSessions   int              `json:"total_sessions"`
	TotalDistance   float64          `json:"total_distance"`
	TotalDuration   int              `json:"total_duration"`
	CurrentStreak   int              `json:"current_streak"`
	LongestStreak   int              `json:"longest_streak"`
	Points          int              `json:"points"`
	Badges          []Badge          `json:"badges"`
	PersonalRecords []PersonalRecord `json:"personal_records"`
	Weight          *WeightTracking  `json:"weight_tracking,omitempty"`
	Protein         *ProteinTracking `json:"protein_tracking,omitempty"`
}

// Badge is an achievement. Once earned it stays earned.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Earned      bool       `json:"earned"`
	EarnedDate  *time.Time `json:"earned_date,omitempty"`
}

// PersonalRecord is the best value seen for a category.
type PersonalRecord struct {
	Category  string    `json:"category"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	SessionID string    `json:"session_id"`
	Date      time.Time `json:"date"`
}

// WeightTracking holds the body-weight log.
type WeightTracking struct {
	StartWeight *float64      `json:"start_weight,omitempty"`
	GoalWeight  *float64      `json:"goal_weight,omitempty"`
	Entries     []WeightEntry `json:"entries"`
}

// WeightEntry is one body-weight measurement in kilograms.
type WeightEntry struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}

// ProteinTracking holds the nutrition log and the daily target in grams.
type ProteinTracking struct {
	DailyGoal float64        `json:"daily_goal"`
	Entries   []ProteinEntry `json:"entries"`
}
