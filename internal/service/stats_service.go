package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

// Macro energy densities (kcal per gram) and guideline ratio bands (%).
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

var nutrientGuidelines = map[string][2]float64{
	"protein": {10, 15},
	"fat":     {20, 30},
	"carbs":   {50, 65},
}

// DailyCaloriesStats is the daily energy balance view.
type DailyCaloriesStats struct {
	Date                      string             `json:"date"`
	IntakeKcal                float64            `json:"intake_kcal"`
	MealCount                 int64              `json:"meal_count"`
	MealBreakdown             map[string]float64 `json:"meal_breakdown"`
	PlannedBurnKcal           float64            `json:"planned_burn_kcal"`
	ActualBurnKcal            float64            `json:"actual_burn_kcal"`
	BurnKcal                  float64            `json:"burn_kcal"`
	ExerciseCount             int                `json:"exercise_count"`
	ActualExerciseCount       int                `json:"actual_exercise_count"`
	ExerciseDurationMin       int                `json:"exercise_duration_min"`
	ActualExerciseDurationMin int                `json:"actual_exercise_duration_min"`
	NetKcal                   float64            `json:"net_kcal"`
	CalorieDeficit            float64            `json:"calorie_deficit"`
	GoalAchievementRate       *float64           `json:"goal_achievement_rate"`
}

// WeeklyCaloriesStats aggregates seven daily views.
type WeeklyCaloriesStats struct {
	WeekStart      string               `json:"week_start"`
	WeekEnd        string               `json:"week_end"`
	ActiveDays     int                  `json:"active_days"`
	TotalIntake    float64              `json:"total_intake_kcal"`
	TotalBurn      float64              `json:"total_burn_kcal"`
	TotalNet       float64              `json:"total_net_kcal"`
	AvgIntake      float64              `json:"avg_intake_kcal"`
	AvgBurn        float64              `json:"avg_burn_kcal"`
	AvgNet         float64              `json:"avg_net_kcal"`
	DailyBreakdown []DailyBalanceBrief  `json:"daily_breakdown"`
}

// DailyBalanceBrief is one row of the weekly breakdown.
type DailyBalanceBrief struct {
	Date       string  `json:"date"`
	IntakeKcal float64 `json:"intake_kcal"`
	BurnKcal   float64 `json:"burn_kcal"`
	NetKcal    float64 `json:"net_kcal"`
	Active     bool    `json:"active"`
}

// NutrientGuideline compares one macro against the guideline band.
type NutrientGuideline struct {
	ActualRatio    float64 `json:"actual_ratio"`
	RecommendedMin float64 `json:"recommended_min"`
	RecommendedMax float64 `json:"recommended_max"`
	Status         string  `json:"status"` // low / normal / high
	Message        string  `json:"message"`
}

// DailyNutrientsStats is the daily macronutrient view.
type DailyNutrientsStats struct {
	Date         string                       `json:"date"`
	ProteinGrams float64                      `json:"protein_grams"`
	FatGrams     float64                      `json:"fat_grams"`
	CarbsGrams   float64                      `json:"carbs_grams"`
	ProteinKcal  float64                      `json:"protein_kcal"`
	FatKcal      float64                      `json:"fat_kcal"`
	CarbsKcal    float64                      `json:"carbs_kcal"`
	TotalKcal    float64                      `json:"total_kcal"`
	ProteinRatio float64                      `json:"protein_ratio"`
	FatRatio     float64                      `json:"fat_ratio"`
	CarbsRatio   float64                      `json:"carbs_ratio"`
	Guidelines   map[string]NutrientGuideline `json:"guidelines"`
}

// DailyExerciseData is one zero-filled day in the frequency window.
type DailyExerciseData struct {
	Date        string  `json:"date"`
	Count       int     `json:"count"`
	DurationMin int     `json:"duration_min"`
	Calories    float64 `json:"calories"`
}

// TypeDistribution is one exercise type's share of the window.
type TypeDistribution struct {
	ExerciseType string  `json:"exercise_type"`
	Count        int     `json:"count"`
	DurationMin  int     `json:"duration_min"`
	Calories     float64 `json:"calories"`
	Percentage   float64 `json:"percentage"`
}

// ExerciseFrequencyStats is the frequency view over a week or month window.
type ExerciseFrequencyStats struct {
	Period                string              `json:"period"`
	ActiveDays            int                 `json:"active_days"`
	TotalExerciseCount    int                 `json:"total_exercise_count"`
	TotalDurationMin      int                 `json:"total_duration_min"`
	TotalCalories         float64             `json:"total_calories"`
	AvgFrequencyPerWeek   float64             `json:"avg_frequency_per_week"`
	AvgDurationPerSession float64             `json:"avg_duration_per_session"`
	AvgCaloriesPerSession float64             `json:"avg_calories_per_session"`
	DailyData             []DailyExerciseData `json:"daily_data"`
	TypeDistribution      []TypeDistribution  `json:"type_distribution"`
	FrequencyRating       string              `json:"frequency_rating"`
	FrequencySuggestion   string              `json:"frequency_suggestion"`
}

// StatsService serves the analytical read-only views.
type StatsService interface {
	DailyCalories(ctx context.Context, userID int64, date time.Time) (*DailyCaloriesStats, error)
	WeeklyCalories(ctx context.Context, userID int64, weekStart time.Time) (*WeeklyCaloriesStats, error)
	DailyNutrients(ctx context.Context, userID int64, date time.Time) (*DailyNutrientsStats, error)
	GoalProgress(ctx context.Context, userID int64, days int) (*GoalProgressStats, error)
	ExerciseFrequency(ctx context.Context, userID int64, period string) (*ExerciseFrequencyStats, error)
}

type statsService struct {
	dietRepo     repository.DietRecordRepository
	tripRepo     repository.TripPlanRepository
	exerciseRepo repository.ExerciseRecordRepository
	userRepo     repository.UserRepository
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(
	dietRepo repository.DietRecordRepository,
	tripRepo repository.TripPlanRepository,
	exerciseRepo repository.ExerciseRecordRepository,
	userRepo repository.UserRepository,
) StatsService {
	return &statsService{
		dietRepo:     dietRepo,
		tripRepo:     tripRepo,
		exerciseRepo: exerciseRepo,
		userRepo:     userRepo,
	}
}

// DailyCalories computes the energy balance for one day. Burn prefers
// actual exercise when any exists, otherwise the plan.
func (s *statsService) DailyCalories(ctx context.Context, userID int64, date time.Time) (*DailyCaloriesStats, error) {
	stats := &DailyCaloriesStats{
		Date:          date.Format("2006-01-02"),
		MealBreakdown: map[string]float64{},
	}
	for _, slot := range []string{model.MealBreakfast, model.MealLunch, model.MealDinner, model.MealSnack} {
		stats.MealBreakdown[slot] = 0
	}

	records, err := s.dietRepo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		stats.IntakeKcal += rec.Calories
		stats.MealBreakdown[model.NormalizeMealSlot(rec.MealType)] += rec.Calories
	}
	stats.MealCount = int64(len(records))

	items, err := s.tripRepo.ItemsCoveringDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		stats.PlannedBurnKcal += item.Cost
		stats.ExerciseDurationMin += item.Duration
	}
	stats.ExerciseCount = len(items)

	exercises, err := s.exerciseRepo.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		stats.ActualBurnKcal += ex.ActualCalories
		stats.ActualExerciseDurationMin += ex.ActualDuration
	}
	stats.ActualExerciseCount = len(exercises)

	if stats.ActualExerciseCount > 0 {
		stats.BurnKcal = stats.ActualBurnKcal
	} else {
		stats.BurnKcal = stats.PlannedBurnKcal
	}
	stats.NetKcal = stats.IntakeKcal - stats.BurnKcal
	stats.CalorieDeficit = stats.NetKcal

	if stats.PlannedBurnKcal > 0 {
		rate := stats.ActualBurnKcal / stats.PlannedBurnKcal * 100
		stats.GoalAchievementRate = &rate
	}
	return stats, nil
}

// WeeklyCalories aggregates seven daily views. Averages divide by the
// active-day count, never less than one.
func (s *statsService) WeeklyCalories(ctx context.Context, userID int64, weekStart time.Time) (*WeeklyCaloriesStats, error) {
	stats := &WeeklyCaloriesStats{
		WeekStart:      weekStart.Format("2006-01-02"),
		WeekEnd:        weekStart.AddDate(0, 0, 6).Format("2006-01-02"),
		DailyBreakdown: make([]DailyBalanceBrief, 0, 7),
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		daily, err := s.DailyCalories(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		active := daily.MealCount > 0 || daily.ActualExerciseCount > 0
		if active {
			stats.ActiveDays++
		}
		stats.TotalIntake += daily.IntakeKcal
		stats.TotalBurn += daily.BurnKcal
		stats.TotalNet += daily.NetKcal
		stats.DailyBreakdown = append(stats.DailyBreakdown, DailyBalanceBrief{
			Date:       daily.Date,
			IntakeKcal: daily.IntakeKcal,
			BurnKcal:   daily.BurnKcal,
			NetKcal:    daily.NetKcal,
			Active:     active,
		})
	}

	divisor := float64(stats.ActiveDays)
	if divisor < 1 {
		divisor = 1
	}
	stats.AvgIntake = round1(stats.TotalIntake / divisor)
	stats.AvgBurn = round1(stats.TotalBurn / divisor)
	stats.AvgNet = round1(stats.TotalNet / divisor)
	return stats, nil
}

// DailyNutrients converts the day's macro grams to energy shares and
// compares them against the guideline bands.
func (s *statsService) DailyNutrients(ctx context.Context, userID int64, date time.Time) (*DailyNutrientsStats, error) {
	summary, err := s.dietRepo.GetDailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	stats := &DailyNutrientsStats{
		Date:         date.Format("2006-01-02"),
		ProteinGrams: summary.TotalProtein,
		FatGrams:     summary.TotalFat,
		CarbsGrams:   summary.TotalCarbs,
		ProteinKcal:  summary.TotalProtein * kcalPerGramProtein,
		FatKcal:      summary.TotalFat * kcalPerGramFat,
		CarbsKcal:    summary.TotalCarbs * kcalPerGramCarbs,
		Guidelines:   map[string]NutrientGuideline{},
	}
	stats.TotalKcal = stats.ProteinKcal + stats.FatKcal + stats.CarbsKcal

	if stats.TotalKcal > 0 {
		stats.ProteinRatio = stats.ProteinKcal / stats.TotalKcal * 100
		stats.FatRatio = stats.FatKcal / stats.TotalKcal * 100
		stats.CarbsRatio = stats.CarbsKcal / stats.TotalKcal * 100
	}

	for macro, actual := range map[string]float64{
		"protein": stats.ProteinRatio,
		"fat":     stats.FatRatio,
		"carbs":   stats.CarbsRatio,
	} {
		band := nutrientGuidelines[macro]
		stats.Guidelines[macro] = compareGuideline(macro, actual, band[0], band[1], stats.TotalKcal > 0)
	}
	return stats, nil
}

func compareGuideline(macro string, actual, min, max float64, hasData bool) NutrientGuideline {
	g := NutrientGuideline{
		ActualRatio:    round1(actual),
		RecommendedMin: min,
		RecommendedMax: max,
	}
	if !hasData {
		g.Status = "low"
		g.Message = "暂无当日饮食数据"
		return g
	}
	switch {
	case actual < min:
		g.Status = "low"
		g.Message = fmt.Sprintf("%s供能占比 %.1f%%, 低于建议范围 %.0f%%-%.0f%%", macroName(macro), actual, min, max)
	case actual > max:
		g.Status = "high"
		g.Message = fmt.Sprintf("%s供能占比 %.1f%%, 高于建议范围 %.0f%%-%.0f%%", macroName(macro), actual, min, max)
	default:
		g.Status = "normal"
		g.Message = fmt.Sprintf("%s供能占比 %.1f%%, 处于建议范围内", macroName(macro), actual)
	}
	return g
}

func macroName(macro string) string {
	switch macro {
	case "protein":
		return "蛋白质"
	case "fat":
		return "脂肪"
	default:
		return "碳水化合物"
	}
}

// ExerciseFrequency analyzes the last 7 or 30 days inclusive of today.
func (s *statsService) ExerciseFrequency(ctx context.Context, userID int64, period string) (*ExerciseFrequencyStats, error) {
	windowDays := 7
	if period == "month" {
		windowDays = 30
	} else {
		period = "week"
	}

	today := time.Now()
	start := today.AddDate(0, 0, -(windowDays - 1))
	records, err := s.exerciseRepo.ListByUser(ctx, userID, &start, &today)
	if err != nil {
		return nil, err
	}

	stats := &ExerciseFrequencyStats{
		Period:           period,
		DailyData:        make([]DailyExerciseData, 0, windowDays),
		TypeDistribution: []TypeDistribution{},
	}

	byDate := make(map[string]*DailyExerciseData)
	for i := 0; i < windowDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		stats.DailyData = append(stats.DailyData, DailyExerciseData{Date: day})
		byDate[day] = &stats.DailyData[len(stats.DailyData)-1]
	}

	typeOrder := []string{}
	byType := make(map[string]*TypeDistribution)
	for _, rec := range records {
		day := rec.ExerciseDate.Format("2006-01-02")
		if entry, ok := byDate[day]; ok {
			entry.Count++
			entry.DurationMin += rec.ActualDuration
			entry.Calories += rec.ActualCalories
		}

		dist, ok := byType[rec.ExerciseType]
		if !ok {
			dist = &TypeDistribution{ExerciseType: rec.ExerciseType}
			byType[rec.ExerciseType] = dist
			typeOrder = append(typeOrder, rec.ExerciseType)
		}
		dist.Count++
		dist.DurationMin += rec.ActualDuration
		dist.Calories += rec.ActualCalories

		stats.TotalExerciseCount++
		stats.TotalDurationMin += rec.ActualDuration
		stats.TotalCalories += rec.ActualCalories
	}

	for _, entry := range stats.DailyData {
		if entry.Count > 0 {
			stats.ActiveDays++
		}
	}

	if stats.TotalExerciseCount > 0 {
		stats.AvgDurationPerSession = round1(float64(stats.TotalDurationMin) / float64(stats.TotalExerciseCount))
		stats.AvgCaloriesPerSession = round1(stats.TotalCalories / float64(stats.TotalExerciseCount))
	}
	stats.AvgFrequencyPerWeek = round1(float64(stats.TotalExerciseCount) / (float64(windowDays) / 7))

	for _, typ := range typeOrder {
		dist := byType[typ]
		if stats.TotalExerciseCount > 0 {
			dist.Percentage = round1(float64(dist.Count) / float64(stats.TotalExerciseCount) * 100)
		}
		stats.TypeDistribution = append(stats.TypeDistribution, *dist)
	}
	// Descending by count, encounter order on ties.
	sort.SliceStable(stats.TypeDistribution, func(i, j int) bool {
		return stats.TypeDistribution[i].Count > stats.TypeDistribution[j].Count
	})

	weeklyActive := float64(stats.ActiveDays) / (float64(windowDays) / 7)
	switch {
	case weeklyActive >= 5:
		stats.FrequencyRating = "excellent"
		stats.FrequencySuggestion = "运动频率非常好, 注意安排休息日避免过度训练"
	case weeklyActive >= 3:
		stats.FrequencyRating = "good"
		stats.FrequencySuggestion = "运动频率良好, 再增加1-2天可达到最佳状态"
	case weeklyActive >= 1:
		stats.FrequencyRating = "fair"
		stats.FrequencySuggestion = "运动频率偏低, 建议每周至少运动3天"
	default:
		stats.FrequencyRating = "insufficient"
		stats.FrequencySuggestion = "最近缺乏运动记录, 从每天散步30分钟开始吧"
	}
	return stats, nil
}

// bmr computes the Mifflin-St Jeor basal metabolic rate, falling back to a
// 70kg/170cm/30y male profile when body params are missing.
func bmr(user *model.User) float64 {
	weight, height, age, gender := 70.0, 170.0, 30, "male"
	if user != nil {
		if user.WeightKG > 0 {
			weight = user.WeightKG
		}
		if user.HeightCM > 0 {
			height = user.HeightCM
		}
		if user.Age > 0 {
			age = user.Age
		}
		if user.Gender != "" {
			gender = user.Gender
		}
	}
	base := 10*weight + 6.25*height - 5*float64(age)
	if gender == "female" {
		return base - 161
	}
	return base + 5
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func scoreStatus(score float64) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 65:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}
