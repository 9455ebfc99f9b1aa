package model

import (
	"time"
)

// Meal slot enum values
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MealSlotAliases maps the four canonical Chinese slot names to their
// English keys. Stats aggregators accept both forms.
var MealSlotAliases = map[string]string{
	"早餐": MealBreakfast,
	"午餐": MealLunch,
	"晚餐": MealDinner,
	"加餐": MealSnack,
}

// NormalizeMealSlot maps Chinese aliases to the canonical slot keys and
// buckets anything unrecognized into snack.
func NormalizeMealSlot(slot string) string {
	if canonical, ok := MealSlotAliases[slot]; ok {
		return canonical
	}
	switch slot {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return slot
	}
	return MealSnack
}

// DietRecord represents one logged dish for a user
type DietRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;index;index:idx_diet_user_date" json:"user_id" validate:"required"`
	FoodName   string    `gorm:"size:200;not null" json:"food_name" validate:"required,min=1,max=200"`
	Calories   float64   `json:"calories" validate:"min=0"`
	Protein    float64   `json:"protein" validate:"min=0"`
	Fat        float64   `json:"fat" validate:"min=0"`
	Carbs      float64   `json:"carbs" validate:"min=0"`
	MealType   string    `gorm:"size:20;not null" json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack"`
	RecordDate time.Time `gorm:"type:date;not null;index:idx_diet_user_date" json:"record_date" validate:"required"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (DietRecord) TableName() string {
	return "diet_records"
}

// RecognizedDish is one entry in a menu recognition result
type RecognizedDish struct {
	Name          string  `json:"name"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbs         float64 `json:"carbs"`
	IsRecommended bool    `json:"isRecommended"`
	Reason        string  `json:"reason"`
}

// MenuRecognition stores one menu photo analysis result. Immutable after
// creation; UserID is nullable for anonymous recognitions.
type MenuRecognition struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"index" json:"user_id"`
	Dishes    JSONSlice `gorm:"type:json" json:"dishes"`
	CreatedAt time.Time `json:"created_at"`
}

func (MenuRecognition) TableName() string {
	return "menu_recognitions"
}
