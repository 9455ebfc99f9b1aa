package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a custom type for JSON object fields
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface for JSONMap
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}

	bytes, ok := toBytes(value)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface for JSONMap
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// JSONSlice is a custom type for JSON array fields
type JSONSlice []interface{}

// Scan implements the sql.Scanner interface for JSONSlice
func (j *JSONSlice) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONSlice, 0)
		return nil
	}

	bytes, ok := toBytes(value)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface for JSONSlice
func (j JSONSlice) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// StringSlice is a custom type for JSON string-array fields
type StringSlice []string

// Scan implements the sql.Scanner interface for StringSlice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = make(StringSlice, 0)
		return nil
	}

	bytes, ok := toBytes(value)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for StringSlice
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// sqlite returns string, mysql returns []byte
func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

// Health goal enum values
const (
	GoalReduceFat    = "reduce_fat"
	GoalGainMuscle   = "gain_muscle"
	GoalControlSugar = "control_sugar"
	GoalBalanced     = "balanced"
	GoalUnset        = "unset"
)

// User model represents a registered user in the system
type User struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string      `gorm:"uniqueIndex;size:50;not null" json:"username" validate:"required,min=3,max=50"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	HealthGoal   string      `gorm:"size:20;default:'unset'" json:"health_goal" validate:"oneof=reduce_fat gain_muscle control_sugar balanced unset"`
	Allergens    StringSlice `gorm:"type:json" json:"allergens"`
	WeightKG     float64     `json:"weight_kg" validate:"omitempty,min=0,max=500"`
	HeightCM     float64     `json:"height_cm" validate:"omitempty,min=0,max=300"`
	Age          int         `json:"age" validate:"omitempty,min=0,max=150"`
	Gender       string      `gorm:"size:10" json:"gender" validate:"omitempty,oneof=male female"`
	TravelPref   string      `gorm:"size:100" json:"travel_preference"`
	DailyBudget  float64     `json:"daily_budget"`
	Status       int8        `gorm:"default:1" json:"status" validate:"oneof=0 1"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Session represents a user session stored in Redis
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
