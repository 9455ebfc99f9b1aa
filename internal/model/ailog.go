package model

import (
	"time"
)

// AI call types recorded in the call log
const (
	CallFoodAnalysis    = "food_analysis"
	CallMenuRecognition = "menu_recognition"
	CallTripGeneration  = "trip_generation"
	CallExerciseIntent  = "exercise_intent"
	CallAllergenCheck   = "allergen_check"
	CallMealComparison  = "meal_comparison"
)

// IsValidCallType reports whether t is one of the recorded call types.
func IsValidCallType(t string) bool {
	switch t {
	case CallFoodAnalysis, CallMenuRecognition, CallTripGeneration,
		CallExerciseIntent, CallAllergenCheck, CallMealComparison:
		return true
	}
	return false
}

// Truncation limits for the call log summaries
const (
	SummaryMaxLen = 450
	ErrorMaxLen   = 1000
)

// AICallLog is an append-only record of one upstream model call.
type AICallLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        *int64    `gorm:"index" json:"user_id"`
	CallType      string    `gorm:"size:30;not null;index" json:"call_type"`
	Model         string    `gorm:"size:100" json:"model"`
	InputSummary  string    `gorm:"size:500" json:"input_summary"`
	OutputSummary string    `gorm:"size:500" json:"output_summary"`
	Success       bool      `json:"success"`
	ErrorMessage  *string   `gorm:"size:1000" json:"error_message"`
	LatencyMS     int64     `json:"latency_ms"`
	TokenCount    *int      `json:"token_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (AICallLog) TableName() string {
	return "ai_call_logs"
}

// TruncateSummary clips s to the call-log summary limit.
func TruncateSummary(s string) string {
	return truncateRunes(s, SummaryMaxLen)
}

// TruncateError clips s to the call-log error limit.
func TruncateError(s string) string {
	return truncateRunes(s, ErrorMaxLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
