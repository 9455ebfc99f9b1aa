package model

import (
	"time"
)

// Trip plan status enum values
const (
	TripStatusPlanning = "planning"
	TripStatusOngoing  = "ongoing"
	TripStatusDone     = "done"
)

// CanonicalExerciseTypes is the closed set of nine exercise-type tags.
var CanonicalExerciseTypes = []string{
	"walking", "running", "cycling", "jogging", "hiking",
	"swimming", "gym", "indoor", "outdoor",
}

// IsCanonicalExerciseType reports whether t is one of the nine tags.
func IsCanonicalExerciseType(t string) bool {
	for _, v := range CanonicalExerciseTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TripPlan is an exercise plan owned by a user. Items are composed children
// and are deleted together with the plan.
type TripPlan struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64       `gorm:"not null;index" json:"user_id" validate:"required"`
	Title       string      `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Destination string      `gorm:"size:200" json:"destination"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	StartDate   time.Time   `gorm:"type:date;not null" json:"start_date" validate:"required"`
	EndDate     time.Time   `gorm:"type:date;not null" json:"end_date" validate:"required"`
	Travelers   StringSlice `gorm:"type:json" json:"travelers"`
	Status      string      `gorm:"size:20;default:'planning'" json:"status" validate:"oneof=planning ongoing done"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Items []TripItem `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (TripPlan) TableName() string {
	return "trip_plans"
}

// TripItem is one scheduled exercise slot inside a plan.
// DayIndex is 1-based and must stay within the plan's date span.
type TripItem struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID       int64    `gorm:"not null;index" json:"plan_id" validate:"required"`
	DayIndex     int      `gorm:"not null" json:"day_index" validate:"required,min=1"`
	StartTime    string   `gorm:"size:5" json:"start_time"` // HH:MM
	PlaceName    string   `gorm:"size:200" json:"place_name"`
	PlaceType    string   `gorm:"size:20" json:"place_type" validate:"omitempty,oneof=walking running cycling park gym indoor outdoor"`
	Duration     int      `json:"duration" validate:"min=0"` // minutes
	Cost         float64  `json:"cost"`                      // estimated kcal
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Notes        string   `gorm:"type:text" json:"notes"`
	SortOrder    int      `json:"sort_order"`
	METsValue    float64  `json:"mets_value"`
	CalcBasis    string   `gorm:"size:200" json:"calculation_basis"`
	CreatedAt    time.Time `json:"created_at"`
}

func (TripItem) TableName() string {
	return "trip_items"
}

// ExerciseRecord is an actually performed exercise. PlanID is a weak
// reference: it is set to NULL when the plan is deleted.
type ExerciseRecord struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64      `gorm:"not null;index;index:idx_exercise_user_date" json:"user_id" validate:"required"`
	PlanID          *int64     `gorm:"index" json:"plan_id"`
	ExerciseType    string     `gorm:"size:20;not null" json:"exercise_type" validate:"required"`
	ActualCalories  float64    `json:"actual_calories" validate:"min=0"`
	ActualDuration  int        `json:"actual_duration" validate:"required,min=1"` // minutes
	Distance        *float64   `json:"distance"`                                  // km
	RouteData       *string    `gorm:"type:text" json:"route_data"`
	PlannedCalories *float64   `json:"planned_calories"`
	PlannedDuration *int       `json:"planned_duration"`
	ExerciseDate    time.Time  `gorm:"type:date;not null;index:idx_exercise_user_date" json:"exercise_date" validate:"required"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`

	User User      `gorm:"foreignKey:UserID" json:"-"`
	Plan *TripPlan `gorm:"foreignKey:PlanID;constraint:OnDelete:SET NULL" json:"-"`
}

func (ExerciseRecord) TableName() string {
	return "exercise_records"
}

// CalorieAchievementRate returns actual/planned*100, derived on demand.
func (r *ExerciseRecord) CalorieAchievementRate() *float64 {
	if r.PlannedCalories == nil || *r.PlannedCalories <= 0 {
		return nil
	}
	rate := r.ActualCalories / *r.PlannedCalories * 100
	return &rate
}

// DurationAchievementRate returns actual/planned*100, derived on demand.
func (r *ExerciseRecord) DurationAchievementRate() *float64 {
	if r.PlannedDuration == nil || *r.PlannedDuration <= 0 {
		return nil
	}
	rate := float64(r.ActualDuration) / float64(*r.PlannedDuration) * 100
	return &rate
}
