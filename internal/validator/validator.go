package validator

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/allergen"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
)

// recordDateHorizon bounds how far in the future a dated record may lie.
const recordDateHorizon = 24 * time.Hour

// CustomValidator wraps the validator instance with domain validation functions
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator creates a new custom validator instance
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	RegisterDomainValidators(v)
	return &CustomValidator{validator: v}
}

// RegisterDomainValidators registers the domain tags on an existing validator
// instance, e.g. gin's binding engine.
func RegisterDomainValidators(v *validator.Validate) {
	_ = v.RegisterValidation("meal_slot", validateMealSlot)
	_ = v.RegisterValidation("exercise_type", validateExerciseType)
	_ = v.RegisterValidation("record_date", validateRecordDate)
	_ = v.RegisterValidation("health_goal", validateHealthGoal)
	_ = v.RegisterValidation("allergen_code", validateAllergenCode)
	_ = v.RegisterValidation("stats_period", validateStatsPeriod)
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// GetValidator returns the underlying validator instance
func (cv *CustomValidator) GetValidator() *validator.Validate {
	return cv.validator
}

// validateMealSlot accepts the four canonical slots and their Chinese aliases.
func validateMealSlot(fl validator.FieldLevel) bool {
	slot := fl.Field().String()
	switch slot {
	case model.MealBreakfast, model.MealLunch, model.MealDinner, model.MealSnack:
		return true
	}
	_, ok := model.MealSlotAliases[slot]
	return ok
}

// validateExerciseType accepts only the canonical exercise tags.
func validateExerciseType(fl validator.FieldLevel) bool {
	return model.IsCanonicalExerciseType(fl.Field().String())
}

// validateRecordDate accepts YYYY-MM-DD dates not further out than tomorrow.
func validateRecordDate(fl validator.FieldLevel) bool {
	dateStr := fl.Field().String()
	if dateStr == "" {
		return true // required handles empty values
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return false
	}
	return !date.After(time.Now().Add(recordDateHorizon))
}

// validateHealthGoal accepts the goal enum including unset.
func validateHealthGoal(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.GoalReduceFat, model.GoalGainMuscle, model.GoalControlSugar,
		model.GoalBalanced, model.GoalUnset:
		return true
	}
	return false
}

// validateAllergenCode accepts the canonical eight-class codes.
func validateAllergenCode(fl validator.FieldLevel) bool {
	return allergen.IsCanonicalCode(fl.Field().String())
}

// validateStatsPeriod accepts the frequency window names.
func validateStatsPeriod(fl validator.FieldLevel) bool {
	period := fl.Field().String()
	return period == "" || period == "week" || period == "month"
}

// ValidateDateRangeOrder reports whether start is on or before end. Empty
// values pass so required can own presence checks.
func ValidateDateRangeOrder(startDate, endDate string) bool {
	if startDate == "" || endDate == "" {
		return true
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return false
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return false
	}
	return !start.After(end)
}
