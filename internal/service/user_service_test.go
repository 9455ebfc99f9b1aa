package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserTestService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db := newServiceTestDB(t)
	return NewUserService(repository.NewUserRepository(db), nil), db
}

func TestGetProfileStripsPassword(t *testing.T) {
	svc, db := newUserTestService(t)
	user := seedUser(t, db, &model.User{Username: "profile_user", PasswordHash: "secret-hash"})

	got, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "profile_user", got.Username)
	assert.Empty(t, got.PasswordHash)
}

func TestGetProfileNotFound(t *testing.T) {
	svc, _ := newUserTestService(t)

	_, err := svc.GetProfile(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestUpdatePreferencesPartial(t *testing.T) {
	svc, db := newUserTestService(t)
	user := seedUser(t, db, &model.User{
		HealthGoal: model.GoalBalanced,
		WeightKG:   80,
		Allergens:  model.StringSlice{"egg"},
	})

	goal := model.GoalReduceFat
	allergens := []string{" egg ", "milk", "egg", "", "海鲜"}
	got, err := svc.UpdatePreferences(context.Background(), user.ID, &UpdatePreferencesRequest{
		HealthGoal: &goal,
		Allergens:  &allergens,
	})
	require.NoError(t, err)

	assert.Equal(t, model.GoalReduceFat, got.HealthGoal)
	// Trimmed, deduplicated, order preserved; free-text tokens survive.
	assert.Equal(t, model.StringSlice{"egg", "milk", "海鲜"}, got.Allergens)
	// Untouched fields stay.
	assert.Equal(t, 80.0, got.WeightKG)

	reloaded, err := repository.NewUserRepository(db).GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalReduceFat, reloaded.HealthGoal)
}

func TestForgetMePurgesEverything(t *testing.T) {
	svc, db := newUserTestService(t)
	user := seedUser(t, db, nil)
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)

	for i := 0; i < 3; i++ {
		seedDiet(t, db, user.ID, day.AddDate(0, 0, i), "测试餐", model.MealLunch, 300, 10, 8, 40)
	}
	seedExercise(t, db, user.ID, day, "running", 250, 30)
	seedExercise(t, db, user.ID, day.AddDate(0, 0, 1), "walking", 120, 40)
	require.NoError(t, db.Create(&model.MealComparison{
		UserID: user.ID, Status: model.ComparisonPendingAfter,
	}).Error)

	result, err := svc.ForgetMe(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.DeletedCounts["diet_records"])
	assert.Equal(t, int64(2), result.DeletedCounts["exercise_records"])
	assert.Equal(t, int64(1), result.DeletedCounts["meal_comparisons"])
	assert.Equal(t, int64(1), result.DeletedCounts["user"])
	assert.GreaterOrEqual(t, result.TotalDeleted, int64(7))

	var count int64
	require.NoError(t, db.Model(&model.DietRecord{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	// The purge is not repeatable: the user is gone.
	_, err = svc.ForgetMe(context.Background(), user.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}
