package model

import "time"

// BudgetScope identifies whose spend a model call counts against.
type BudgetScope struct {
	UserID      string
	HouseholdID string
}

// UsageRecord is one spend aggregate per (scope, period). Records for closed
// periods are never mutated; a new period yields a new record key.
type UsageRecord struct {
	UpdatedAt    time.Time `json:"updated_at"`
	PeriodKey    string    `json:"period_key"`
	CallCount    int64     `json:"call_count"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Cost         float64   `json:"cost"`
}

// MonthlyPeriod formats the monthly period key for user-scoped records.
func MonthlyPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DailyPeriod formats the daily period key for system-scoped records.
func DailyPeriod(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
