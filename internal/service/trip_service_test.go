package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
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

type stubGeocoder struct {
	city string
	err  error
}

func (g *stubGeocoder) ReverseCity(ctx context.Context, lat, lon float64) (string, error) {
	return g.city, g.err
}

func newTripTestService(t *testing.T, llm LLMClient) (TripService, *gorm.DB, *model.User) {
	t.Helper()
	db := newServiceTestDB(t)
	user := seedUser(t, db, &model.User{WeightKG: 65})
	svc := NewTripService(
		llm,
		repository.NewTripPlanRepository(db),
		repository.NewUserRepository(db),
		&stubGeocoder{city: "杭州"},
		mets.NewCalculator(nil),
	)
	return svc, db, user
}

func tripIntentJSON(start, end string) string {
	return fmt.Sprintf(`{"destination": "西湖公园", "startDate": %q, "endDate": %q, "days": 0, "calories_target": 400, "exercise_type": "running"}`, start, end)
}

func tripPlanJSON(start string) string {
	raw, _ := json.Marshal(map[string]any{
		"title":       "西湖晨练计划",
		"destination": "西湖公园",
		"startDate":   start,
		"endDate":     start,
		"items": []map[string]any{
			{"dayIndex": 1, "startTime": "07:00", "placeName": "示例公园", "placeType": "park", "duration": 40, "cost": 180, "notes": "晨间快走"},
			{"dayIndex": 1, "startTime": "08:00", "placeName": "示例公园", "placeType": "park", "duration": 30, "cost": 220, "notes": "慢跑"},
			{"dayIndex": 9, "startTime": "19:00", "placeName": "", "placeType": "spaceship", "duration": 0, "cost": 100, "notes": ""},
		},
	})
	return string(raw)
}

func TestGeneratePlanTwoStagePipeline(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	llm := &stubLLM{respond: func(callType, prompt string, images int) (string, error) {
		if callType == model.CallExerciseIntent {
			return tripIntentJSON(today, today), nil
		}
		return tripPlanJSON(today), nil
	}}
	svc, _, user := newTripTestService(t, llm)

	plan, err := svc.GeneratePlan(context.Background(), user.ID, &GeneratePlanRequest{
		Query: "我想今天在杭州跑步消耗400千卡",
	})
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Positive(t, plan.ID)
	assert.Equal(t, model.TripStatusPlanning, plan.Status)
	assert.Equal(t, "西湖晨练计划", plan.Title)

	saved, err := svc.GetPlan(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)
	require.Len(t, saved.Items, 3)

	names := map[string]int{}
	for _, item := range saved.Items {
		// Placeholder tokens stripped, names unique.
		assert.NotContains(t, item.PlaceName, "示例")
		names[item.PlaceName]++
		// Day index clamped to the plan span, bad type and duration repaired.
		assert.Equal(t, 1, item.DayIndex)
		assert.True(t, validPlaceType(item.PlaceType))
		assert.Positive(t, item.Duration)
		// METs enrichment filled the calculation basis.
		assert.Positive(t, item.METsValue)
	}
	for name, count := range names {
		assert.Equal(t, 1, count, "duplicate place name %s", name)
	}

	// Both pipeline stages went through the model.
	assert.Equal(t, 2, llm.callCount())
}

func TestGeneratePlanFallsBackToDefault(t *testing.T) {
	llm := &stubLLM{err: assert.AnError}
	svc, _, user := newTripTestService(t, llm)

	plan, err := svc.GeneratePlan(context.Background(), user.ID, &GeneratePlanRequest{
		Query: "帮我安排运动",
	})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Items)

	got, err := svc.GetPlan(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	// Default plan splits the 300 kcal target into walking plus running;
	// enrichment then recomputes each cost from METs × weight × duration.
	require.Len(t, got.Items, 2)
	assert.Equal(t, "walking", got.Items[0].PlaceType)
	assert.Equal(t, "running", got.Items[1].PlaceType)
	for _, item := range got.Items {
		assert.Positive(t, item.Duration)
		expected := math.Round(item.METsValue * 65 * float64(item.Duration) / 60)
		assert.Equal(t, expected, item.Cost)
		assert.NotEmpty(t, item.CalcBasis)
	}
}

func TestGeneratePlanSentinelDates(t *testing.T) {
	llm := &stubLLM{respond: func(callType, prompt string, images int) (string, error) {
		if callType == model.CallExerciseIntent {
			return tripIntentJSON("2026-01-27", "1970-01-01"), nil
		}
		return "", assert.AnError
	}}
	svc, _, user := newTripTestService(t, llm)

	plan, err := svc.GeneratePlan(context.Background(), user.ID, &GeneratePlanRequest{Query: "去散步"})
	require.NoError(t, err)

	today := time.Now().Format("2006-01-02")
	assert.Equal(t, today, plan.StartDate.Format("2006-01-02"))
	assert.Equal(t, today, plan.EndDate.Format("2006-01-02"))
}

func TestTripPlanOwnershipAndDelete(t *testing.T) {
	llm := &stubLLM{err: assert.AnError}
	svc, db, user := newTripTestService(t, llm)
	other := seedUser(t, db, nil)

	plan, err := svc.GeneratePlan(context.Background(), user.ID, &GeneratePlanRequest{Query: "散步"})
	require.NoError(t, err)

	_, err = svc.GetPlan(context.Background(), other.ID, plan.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, svc.DeletePlan(context.Background(), other.ID, plan.ID), apperrors.ErrPermissionDenied)

	require.NoError(t, svc.DeletePlan(context.Background(), user.ID, plan.ID))
	_, err = svc.GetPlan(context.Background(), user.ID, plan.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	// Cascade removed the items too.
	var count int64
	require.NoError(t, db.Model(&model.TripItem{}).Where("plan_id = ?", plan.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdjustStartTimeClamped(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)

	for day := 1; day <= 5; day++ {
		got := adjustStartTime("早上去跑步", day, start, start)
		parsed, err := time.Parse("15:04", got)
		require.NoError(t, err)
		lower, _ := time.Parse("15:04", "06:30")
		upper, _ := time.Parse("15:04", "21:30")
		assert.False(t, parsed.Before(lower), "day %d start %s before window", day, got)
		assert.False(t, parsed.After(upper), "day %d start %s after window", day, got)
	}

	// Late-night keyword bases still land inside the window.
	late := adjustStartTime("晚上跑步", 3, start, start)
	parsed, err := time.Parse("15:04", late)
	require.NoError(t, err)
	upper, _ := time.Parse("15:04", "21:30")
	assert.False(t, parsed.After(upper))
}

func TestSanitizePlaceName(t *testing.T) {
	assert.Equal(t, "运动场所", sanitizePlaceName("示例XX"))
	assert.Equal(t, "人民公园", sanitizePlaceName("  人民公园  "))
	long := make([]rune, 0, 40)
	for i := 0; i < 40; i++ {
		long = append(long, '园')
	}
	assert.Len(t, []rune(sanitizePlaceName(string(long))), 30)
}
