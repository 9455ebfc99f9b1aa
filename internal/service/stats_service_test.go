package service

import (
	"context"
	"testing"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStatsTestService(t *testing.T) (StatsService, *gorm.DB, *model.User) {
	t.Helper()
	db := newServiceTestDB(t)
	user := seedUser(t, db, &model.User{WeightKG: 70, HeightCM: 175, Age: 28, Gender: "male"})
	svc := NewStatsService(
		repository.NewDietRecordRepository(db),
		repository.NewTripPlanRepository(db),
		repository.NewExerciseRecordRepository(db),
		repository.NewUserRepository(db),
	)
	return svc, db, user
}

func seedDiet(t *testing.T, db *gorm.DB, userID int64, date time.Time, name, slot string, kcal, protein, fat, carbs float64) {
	t.Helper()
	require.NoError(t, db.Create(&model.DietRecord{
		UserID: userID, FoodName: name, MealType: slot, RecordDate: date,
		Calories: kcal, Protein: protein, Fat: fat, Carbs: carbs,
	}).Error)
}

func seedPlanWithItem(t *testing.T, db *gorm.DB, userID int64, date time.Time, cost float64, duration int) {
	t.Helper()
	plan := &model.TripPlan{
		UserID: userID, Title: "日常运动计划", Destination: "北京朝阳公园",
		StartDate: date, EndDate: date, Status: model.TripStatusPlanning,
	}
	require.NoError(t, db.Create(plan).Error)
	require.NoError(t, db.Create(&model.TripItem{
		PlanID: plan.ID, DayIndex: 1, StartTime: "08:00", PlaceName: "北京朝阳公园",
		PlaceType: "running", Duration: duration, Cost: cost,
	}).Error)
}

func seedExercise(t *testing.T, db *gorm.DB, userID int64, date time.Time, typ string, kcal float64, duration int) {
	t.Helper()
	require.NoError(t, db.Create(&model.ExerciseRecord{
		UserID: userID, ExerciseType: typ, ActualCalories: kcal,
		ActualDuration: duration, ExerciseDate: date,
	}).Error)
}

func TestDailyCaloriesPlannedOnly(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)

	seedDiet(t, db, user.ID, day, "燕麦粥", model.MealBreakfast, 200, 6, 3, 36)
	seedDiet(t, db, user.ID, day, "鸡胸肉沙拉", model.MealLunch, 400, 35, 12, 20)
	seedDiet(t, db, user.ID, day, "清蒸鲈鱼", model.MealDinner, 500, 40, 20, 5)
	seedDiet(t, db, user.ID, day, "苹果", model.MealSnack, 200, 1, 0.5, 50)
	seedPlanWithItem(t, db, user.ID, day, 300, 40)

	stats, err := svc.DailyCalories(context.Background(), user.ID, day)
	require.NoError(t, err)

	assert.Equal(t, 1300.0, stats.IntakeKcal)
	assert.Equal(t, int64(4), stats.MealCount)
	assert.Equal(t, 200.0, stats.MealBreakdown[model.MealBreakfast])
	assert.Equal(t, 400.0, stats.MealBreakdown[model.MealLunch])
	assert.Equal(t, 300.0, stats.PlannedBurnKcal)
	assert.Zero(t, stats.ActualBurnKcal)
	assert.Equal(t, 300.0, stats.BurnKcal)
	assert.Equal(t, 1000.0, stats.NetKcal)
	assert.Equal(t, 1000.0, stats.CalorieDeficit)
	require.NotNil(t, stats.GoalAchievementRate)
	assert.Equal(t, 0.0, *stats.GoalAchievementRate)
}

func TestDailyCaloriesActualBeatsPlanned(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local)

	seedPlanWithItem(t, db, user.ID, day, 300, 40)
	seedExercise(t, db, user.ID, day, "running", 250, 30)

	stats, err := svc.DailyCalories(context.Background(), user.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 250.0, stats.BurnKcal)
	require.NotNil(t, stats.GoalAchievementRate)
	assert.InDelta(t, 250.0/300.0*100, *stats.GoalAchievementRate, 0.01)
}

func TestDailyCaloriesNoPlanNoRate(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.Local)
	seedDiet(t, db, user.ID, day, "白米饭", model.MealLunch, 232, 5, 0.6, 52)

	stats, err := svc.DailyCalories(context.Background(), user.ID, day)
	require.NoError(t, err)
	assert.Zero(t, stats.BurnKcal)
	assert.Nil(t, stats.GoalAchievementRate)
}

func TestWeeklyCaloriesBreakdown(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)

	seedDiet(t, db, user.ID, weekStart, "早餐A", model.MealBreakfast, 300, 10, 8, 45)
	seedDiet(t, db, user.ID, weekStart.AddDate(0, 0, 2), "午餐B", model.MealLunch, 600, 25, 18, 70)
	seedExercise(t, db, user.ID, weekStart.AddDate(0, 0, 2), "running", 280, 35)

	stats, err := svc.WeeklyCalories(context.Background(), user.ID, weekStart)
	require.NoError(t, err)

	require.Len(t, stats.DailyBreakdown, 7)
	assert.Equal(t, 2, stats.ActiveDays)
	assert.Equal(t, 900.0, stats.TotalIntake)
	for _, day := range stats.DailyBreakdown {
		assert.InDelta(t, day.IntakeKcal-day.BurnKcal, day.NetKcal, 0.001)
	}
	assert.InDelta(t, stats.TotalIntake/2, stats.AvgIntake, 0.1)
}

func TestDailyNutrientsRatios(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	day := time.Date(2026, 3, 13, 0, 0, 0, 0, time.Local)
	seedDiet(t, db, user.ID, day, "混合餐", model.MealLunch, 600, 30, 20, 60)

	stats, err := svc.DailyNutrients(context.Background(), user.ID, day)
	require.NoError(t, err)

	assert.Equal(t, 120.0, stats.ProteinKcal)
	assert.Equal(t, 180.0, stats.FatKcal)
	assert.Equal(t, 240.0, stats.CarbsKcal)
	assert.Equal(t, 540.0, stats.TotalKcal)
	assert.InDelta(t, 100.0, stats.ProteinRatio+stats.FatRatio+stats.CarbsRatio, 0.05)

	// 22.2% protein is above the 10-15 band; 33.3% fat above 20-30;
	// 44.4% carbs below 50-65.
	assert.Equal(t, "high", stats.Guidelines["protein"].Status)
	assert.Equal(t, "high", stats.Guidelines["fat"].Status)
	assert.Equal(t, "low", stats.Guidelines["carbs"].Status)
}

func TestDailyNutrientsNoData(t *testing.T) {
	svc, _, user := newStatsTestService(t)

	stats, err := svc.DailyNutrients(context.Background(), user.ID, time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Zero(t, stats.TotalKcal)
	for _, macro := range []string{"protein", "fat", "carbs"} {
		assert.Equal(t, "low", stats.Guidelines[macro].Status)
		assert.Contains(t, stats.Guidelines[macro].Message, "暂无")
	}
}

func TestGoalProgressOverallIsMean(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	user.HealthGoal = model.GoalReduceFat
	require.NoError(t, db.Save(user).Error)

	today := time.Now()
	for i := 0; i < 3; i++ {
		day := today.AddDate(0, 0, -i)
		seedDiet(t, db, user.ID, day, "减脂餐", model.MealLunch, 1500, 90, 40, 150)
		seedExercise(t, db, user.ID, day, "running", 300, 40)
	}

	stats, err := svc.GoalProgress(context.Background(), user.ID, 7)
	require.NoError(t, err)

	require.Len(t, stats.Dimensions, 3)
	var sum float64
	for _, dim := range stats.Dimensions {
		assert.GreaterOrEqual(t, dim.Score, 0.0)
		assert.LessOrEqual(t, dim.Score, 100.0)
		sum += dim.Score
	}
	assert.InDelta(t, sum/3, stats.OverallScore, 0.1)
	assert.Equal(t, 3, stats.StreakDays)
	assert.NotEmpty(t, stats.Suggestions)
	assert.Equal(t, model.GoalReduceFat, stats.HealthGoal)
}

func TestGoalProgressStreakBreaks(t *testing.T) {
	svc, db, user := newStatsTestService(t)

	today := time.Now()
	seedDiet(t, db, user.ID, today, "今日餐", model.MealLunch, 500, 20, 15, 60)
	// Yesterday empty; the day before has a record that must not count.
	seedDiet(t, db, user.ID, today.AddDate(0, 0, -2), "前日餐", model.MealLunch, 500, 20, 15, 60)

	stats, err := svc.GoalProgress(context.Background(), user.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StreakDays)
}

func TestExerciseFrequencyWeek(t *testing.T) {
	svc, db, user := newStatsTestService(t)
	today := time.Now()

	seedExercise(t, db, user.ID, today, "running", 300, 30)
	seedExercise(t, db, user.ID, today, "walking", 100, 25)
	seedExercise(t, db, user.ID, today.AddDate(0, 0, -1), "running", 320, 32)
	seedExercise(t, db, user.ID, today.AddDate(0, 0, -3), "gym", 400, 60)

	stats, err := svc.ExerciseFrequency(context.Background(), user.ID, "week")
	require.NoError(t, err)

	assert.Equal(t, "week", stats.Period)
	require.Len(t, stats.DailyData, 7)
	assert.Equal(t, 3, stats.ActiveDays)
	assert.Equal(t, 4, stats.TotalExerciseCount)

	var dailySum, typeSum int
	var pctSum float64
	for _, d := range stats.DailyData {
		dailySum += d.Count
	}
	for _, d := range stats.TypeDistribution {
		typeSum += d.Count
		pctSum += d.Percentage
	}
	assert.Equal(t, stats.TotalExerciseCount, dailySum)
	assert.Equal(t, stats.TotalExerciseCount, typeSum)
	assert.InDelta(t, 100.0, pctSum, 0.5)

	// running has the highest count and must sort first.
	assert.Equal(t, "running", stats.TypeDistribution[0].ExerciseType)
	assert.Equal(t, "good", stats.FrequencyRating)

	// Ascending zero-filled window.
	for i := 1; i < len(stats.DailyData); i++ {
		assert.Less(t, stats.DailyData[i-1].Date, stats.DailyData[i].Date)
	}
}

func TestExerciseFrequencyInsufficient(t *testing.T) {
	svc, _, user := newStatsTestService(t)

	stats, err := svc.ExerciseFrequency(context.Background(), user.ID, "month")
	require.NoError(t, err)
	assert.Equal(t, "month", stats.Period)
	require.Len(t, stats.DailyData, 30)
	assert.Equal(t, "insufficient", stats.FrequencyRating)
	assert.Empty(t, stats.TypeDistribution)
}
