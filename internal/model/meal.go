package model

import (
	"time"
)

// Meal comparison state machine statuses
const (
	ComparisonPendingAfter = "pending_after"
	ComparisonCompleted    = "completed"
)

// DishFeature is the AI estimate of one dish in a before image.
type DishFeature struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"` // grams
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// MealTotals aggregates the before-image dish estimates.
type MealTotals struct {
	Weight   float64 `json:"weight"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// BeforeFeatures is the structured extraction of a before image.
type BeforeFeatures struct {
	Dishes []DishFeature `json:"dishes"`
	Totals MealTotals    `json:"totals"`
}

// DishRemaining is the AI estimate of what is left of one dish.
type DishRemaining struct {
	Name            string   `json:"name"`
	RemainingRatio  float64  `json:"remaining_ratio"`
	RemainingWeight *float64 `json:"remaining_weight,omitempty"`
}

// AfterFeatures is the structured before-vs-after comparison result.
type AfterFeatures struct {
	Dishes                []DishRemaining `json:"dishes"`
	OverallRemainingRatio float64         `json:"overall_remaining_ratio"`
	ConsumptionRatio      float64         `json:"consumption_ratio"`
	ComparisonAnalysis    string          `json:"comparison_analysis"`
}

// MealComparison is the two-phase before/after diff record. The before
// features JSON is stored verbatim so the after phase compares against the
// exact per-dish estimates the model produced.
type MealComparison struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64     `gorm:"not null;index" json:"user_id" validate:"required"`
	Status           string    `gorm:"size:20;not null;default:'pending_after'" json:"status" validate:"oneof=pending_after completed"`
	BeforeImageURL   string    `gorm:"size:500" json:"before_image_url"`
	BeforeFeatures   string    `gorm:"type:text" json:"before_features"`
	AfterImageURL    string    `gorm:"size:500" json:"after_image_url"`
	AfterFeatures    string    `gorm:"type:text" json:"after_features"`
	ConsumptionRatio float64   `json:"consumption_ratio" validate:"min=0,max=1"`
	OriginalCalories float64   `json:"original_calories"`
	OriginalProtein  float64   `json:"original_protein"`
	OriginalFat      float64   `json:"original_fat"`
	OriginalCarbs    float64   `json:"original_carbs"`
	NetCalories      float64   `json:"net_calories"`
	NetProtein       float64   `json:"net_protein"`
	NetFat           float64   `json:"net_fat"`
	NetCarbs         float64   `json:"net_carbs"`
	Analysis         string    `gorm:"type:text" json:"analysis"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (MealComparison) TableName() string {
	return "meal_comparisons"
}
