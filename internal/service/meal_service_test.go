package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beforeResponse = `{"dishes": [
  {"name": "番茄炒蛋", "weight": 300, "calories": 360, "protein": 22, "fat": 25, "carbs": 15},
  {"name": "米饭", "weight": 200, "calories": 232, "protein": 5.2, "fat": 0.6, "carbs": 51.8}],
 "totals": {"weight": 500, "calories": 592, "protein": 27.2, "fat": 25.6, "carbs": 66.8}}`

const afterResponse = `{"dishes": [
  {"name": "番茄炒蛋", "remaining_ratio": 0.1},
  {"name": "米饭", "remaining_ratio": 0.3}],
 "overall_remaining_ratio": 0.2, "consumption_ratio": 0.8,
 "comparison_analysis": "两道菜大部分已吃完"}`

func newMealTestService(t *testing.T, llm LLMClient) (MealService, repository.MealComparisonRepository) {
	t.Helper()
	db := newServiceTestDB(t)
	mealRepo := repository.NewMealComparisonRepository(db)
	return NewMealService(llm, mealRepo), mealRepo
}

func TestMealHappyPath(t *testing.T) {
	llm := &stubLLM{
		respond: func(callType, prompt string, images int) (string, error) {
			if images == 1 && strings.Contains(prompt, "餐后照片") {
				return afterResponse, nil
			}
			return beforeResponse, nil
		},
	}
	svc, _ := newMealTestService(t, llm)
	ctx := context.Background()

	before, err := svc.UploadBefore(ctx, 1, "/uploads/meal/a.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, model.ComparisonPendingAfter, before.Status)
	assert.Equal(t, 592.0, before.OriginalCalories)
	assert.Contains(t, before.BeforeFeatures, "番茄炒蛋")

	after, err := svc.UploadAfter(ctx, 1, before.ID, "/uploads/meal/b.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, model.ComparisonCompleted, after.Status)
	assert.Equal(t, 0.8, after.ConsumptionRatio)
	assert.InDelta(t, after.OriginalCalories*after.ConsumptionRatio, after.NetCalories, 0.1)
	assert.InDelta(t, after.OriginalProtein*after.ConsumptionRatio, after.NetProtein, 0.1)
	assert.InDelta(t, after.OriginalFat*after.ConsumptionRatio, after.NetFat, 0.1)
	assert.InDelta(t, after.OriginalCarbs*after.ConsumptionRatio, after.NetCarbs, 0.1)

	// The after prompt must replay the stored before features verbatim.
	assert.Contains(t, llm.prompts[1], "番茄炒蛋")

	// Completing the same record twice conflicts.
	_, err = svc.UploadAfter(ctx, 1, before.ID, "/uploads/meal/c.png", []byte("png"))
	assert.ErrorIs(t, err, apperrors.ErrComparisonConflict)
}

func TestMealAfterFallbackRatio(t *testing.T) {
	first := true
	llm := &stubLLM{
		respond: func(callType, prompt string, images int) (string, error) {
			if first {
				first = false
				return beforeResponse, nil
			}
			return "", errors.New("vision down")
		},
	}
	svc, _ := newMealTestService(t, llm)
	ctx := context.Background()

	before, err := svc.UploadBefore(ctx, 1, "/uploads/meal/a.png", []byte("png"))
	require.NoError(t, err)

	after, err := svc.UploadAfter(ctx, 1, before.ID, "/uploads/meal/b.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, model.ComparisonCompleted, after.Status)
	assert.Equal(t, defaultConsumptionRatio, after.ConsumptionRatio)
	assert.Contains(t, after.Analysis, "默认消耗比例75%")
	assert.InDelta(t, math.Round(592*0.75*10)/10, after.NetCalories, 0.1)
}

func TestMealBeforeFailureStillCreates(t *testing.T) {
	llm := &stubLLM{err: errors.New("vision down")}
	svc, _ := newMealTestService(t, llm)

	before, err := svc.UploadBefore(context.Background(), 1, "/uploads/meal/a.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, model.ComparisonPendingAfter, before.Status)
	assert.Zero(t, before.OriginalCalories)
}

func TestMealAfterOwnershipAndNotFound(t *testing.T) {
	llm := &stubLLM{text: beforeResponse}
	svc, _ := newMealTestService(t, llm)
	ctx := context.Background()

	before, err := svc.UploadBefore(ctx, 1, "/uploads/meal/a.png", []byte("png"))
	require.NoError(t, err)

	// Another user cannot see the record.
	_, err = svc.UploadAfter(ctx, 2, before.ID, "/uploads/meal/b.png", []byte("png"))
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = svc.UploadAfter(ctx, 1, 9999, "/uploads/meal/b.png", []byte("png"))
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestMealAdjust(t *testing.T) {
	llm := &stubLLM{
		respond: func(callType, prompt string, images int) (string, error) {
			if strings.Contains(prompt, "餐后照片") {
				return afterResponse, nil
			}
			return beforeResponse, nil
		},
	}
	svc, _ := newMealTestService(t, llm)
	ctx := context.Background()

	before, err := svc.UploadBefore(ctx, 1, "/uploads/meal/a.png", []byte("png"))
	require.NoError(t, err)

	// Adjust only applies to completed records.
	_, err = svc.Adjust(ctx, 1, before.ID, 0.5)
	assert.Error(t, err)

	_, err = svc.UploadAfter(ctx, 1, before.ID, "/uploads/meal/b.png", []byte("png"))
	require.NoError(t, err)

	adjusted, err := svc.Adjust(ctx, 1, before.ID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, adjusted.ConsumptionRatio)
	assert.InDelta(t, 592*0.5, adjusted.NetCalories, 0.1)

	_, err = svc.Adjust(ctx, 1, before.ID, 1.5)
	assert.Error(t, err)
}
