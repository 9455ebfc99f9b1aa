package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/mets"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newExerciseTestService(t *testing.T) (ExerciseService, *gorm.DB, *model.User) {
	t.Helper()
	db := newServiceTestDB(t)
	user := seedUser(t, db, &model.User{WeightKG: 60})
	svc := NewExerciseService(
		repository.NewExerciseRecordRepository(db),
		repository.NewTripPlanRepository(db),
		repository.NewUserRepository(db),
		mets.NewCalculator(nil),
	)
	return svc, db, user
}

func TestExerciseCreateRejectsUnknownType(t *testing.T) {
	svc, _, user := newExerciseTestService(t)

	_, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "parkour",
		ActualDuration: 30,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidExercise)
}

func TestExerciseCreateFillsCaloriesFromMETs(t *testing.T) {
	svc, _, user := newExerciseTestService(t)

	record, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "running",
		ActualDuration: 30,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	require.NoError(t, err)
	// running is 8.0 METs: 8.0 × 60kg × 0.5h = 240 kcal.
	assert.InDelta(t, 240.0, record.ActualCalories, 0.01)
}

func TestExerciseCreateKeepsMeasuredCalories(t *testing.T) {
	svc, _, user := newExerciseTestService(t)

	record, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "walking",
		ActualCalories: 111,
		ActualDuration: 45,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, 111.0, record.ActualCalories)
}

func TestExerciseCreateCopiesPlannedValues(t *testing.T) {
	svc, db, user := newExerciseTestService(t)
	day := time.Now()
	seedPlanWithItem(t, db, user.ID, day, 320, 40)

	var plan model.TripPlan
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&plan).Error)

	record, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		PlanID:         &plan.ID,
		ExerciseType:   "running",
		ActualCalories: 280,
		ActualDuration: 35,
		ExerciseDate:   day.Format("2006-01-02"),
	})
	require.NoError(t, err)
	require.NotNil(t, record.PlannedCalories)
	require.NotNil(t, record.PlannedDuration)
	assert.Equal(t, 320.0, *record.PlannedCalories)
	assert.Equal(t, 40, *record.PlannedDuration)
}

func TestExerciseCreatePlanOwnership(t *testing.T) {
	svc, db, user := newExerciseTestService(t)
	other := seedUser(t, db, nil)
	seedPlanWithItem(t, db, other.ID, time.Now(), 300, 30)

	var plan model.TripPlan
	require.NoError(t, db.Where("user_id = ?", other.ID).First(&plan).Error)

	_, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		PlanID:         &plan.ID,
		ExerciseType:   "running",
		ActualDuration: 30,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	missing := plan.ID + 1000
	_, err = svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		PlanID:         &missing,
		ExerciseType:   "running",
		ActualDuration: 30,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestExerciseCreateTimeValidation(t *testing.T) {
	svc, _, user := newExerciseTestService(t)
	started := "2026-05-01 09:00"
	ended := "2026-05-01 08:30"

	_, err := svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "cycling",
		ActualDuration: 30,
		ExerciseDate:   "2026-05-01",
		StartedAt:      &started,
		EndedAt:        &ended,
	})
	requireAppErrorCode(t, err, apperrors.ErrInvalidParam)

	bad := "yesterday morning"
	_, err = svc.Create(context.Background(), user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "cycling",
		ActualDuration: 30,
		ExerciseDate:   "2026-05-01",
		StartedAt:      &bad,
	})
	requireAppErrorCode(t, err, apperrors.ErrInvalidParam)
}

func TestExerciseGetListDeleteOwnership(t *testing.T) {
	svc, db, user := newExerciseTestService(t)
	other := seedUser(t, db, nil)
	ctx := context.Background()

	record, err := svc.Create(ctx, user.ID, &CreateExerciseRecordRequest{
		ExerciseType:   "swimming",
		ActualCalories: 350,
		ActualDuration: 50,
		ExerciseDate:   time.Now().Format("2006-01-02"),
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other.ID, record.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	got, err := svc.Get(ctx, user.ID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "swimming", got.ExerciseType)

	list, err := svc.List(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, other.ID, record.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, svc.Delete(ctx, user.ID, record.ID))
	_, err = svc.Get(ctx, user.ID, record.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}
