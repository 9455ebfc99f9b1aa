package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
)

// GoalDimension is one scored axis of the goal-progress evaluation.
type GoalDimension struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Status      string  `json:"status"`
	Current     float64 `json:"current_value"`
	Target      float64 `json:"target_value"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

// PeriodSummary holds totals and per-active-day averages over the window.
type PeriodSummary struct {
	ActiveDays       int     `json:"active_days"`
	DietDays         int     `json:"diet_days"`
	ExerciseDays     int     `json:"exercise_days"`
	TotalIntakeKcal  float64 `json:"total_intake_kcal"`
	TotalProtein     float64 `json:"total_protein"`
	TotalFat         float64 `json:"total_fat"`
	TotalCarbs       float64 `json:"total_carbs"`
	TotalBurnKcal    float64 `json:"total_burn_kcal"`
	TotalExerciseMin int     `json:"total_exercise_min"`
	AvgIntakeKcal    float64 `json:"avg_intake_kcal"`
	AvgProtein       float64 `json:"avg_protein"`
	AvgFat           float64 `json:"avg_fat"`
	AvgCarbs         float64 `json:"avg_carbs"`
	AvgBurnKcal      float64 `json:"avg_burn_kcal"`
	AvgExerciseMin   float64 `json:"avg_exercise_min"`
}

// GoalProgressStats is the multi-dimensional goal evaluation result.
type GoalProgressStats struct {
	HealthGoal   string          `json:"health_goal"`
	PeriodDays   int             `json:"period_days"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Summary      PeriodSummary   `json:"summary"`
	Dimensions   []GoalDimension `json:"dimensions"`
	OverallScore float64         `json:"overall_score"`
	Status       string          `json:"status"`
	Suggestions  []string        `json:"suggestions"`
	StreakDays   int             `json:"streak_days"`
}

// GoalProgress scores the user's recent period against their health goal.
func (s *statsService) GoalProgress(ctx context.Context, userID int64, days int) (*GoalProgressStats, error) {
	if days <= 0 {
		days = 7
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -(days - 1))

	summary, activeFlags, err := s.collectPeriod(ctx, userID, startDate, days)
	if err != nil {
		return nil, err
	}

	goal := model.GoalUnset
	if user != nil && user.HealthGoal != "" {
		goal = user.HealthGoal
	}
	basal := bmr(user)

	stats := &GoalProgressStats{
		HealthGoal: goal,
		PeriodDays: days,
		StartDate:  startDate.Format("2006-01-02"),
		EndDate:    endDate.Format("2006-01-02"),
		Summary:    *summary,
	}

	weight := 70.0
	if user != nil && user.WeightKG > 0 {
		weight = user.WeightKG
	}

	switch goal {
	case model.GoalReduceFat:
		stats.Dimensions = evalReduceFat(summary, basal)
	case model.GoalGainMuscle:
		stats.Dimensions = evalGainMuscle(summary, basal, weight)
	case model.GoalControlSugar:
		stats.Dimensions = evalControlSugar(summary, basal)
	default:
		stats.Dimensions = evalBalanced(summary, days)
	}

	var sum float64
	for _, dim := range stats.Dimensions {
		sum += dim.Score
	}
	if len(stats.Dimensions) > 0 {
		stats.OverallScore = round1(sum / float64(len(stats.Dimensions)))
	}
	stats.Status = scoreStatus(stats.OverallScore)
	stats.Suggestions = buildSuggestions(goal, stats.Dimensions)

	// Consecutive active days counted back from the window end.
	for i := days - 1; i >= 0; i-- {
		if !activeFlags[i] {
			break
		}
		stats.StreakDays++
	}
	return stats, nil
}

// collectPeriod walks the window day by day, accumulating intake, macros,
// burn and exercise minutes. Burn follows the daily rule: actual records
// win over the plan.
func (s *statsService) collectPeriod(ctx context.Context, userID int64, start time.Time, days int) (*PeriodSummary, []bool, error) {
	summary := &PeriodSummary{}
	activeFlags := make([]bool, days)

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)

		diet, err := s.dietRepo.GetDailySummary(ctx, userID, day)
		if err != nil {
			return nil, nil, err
		}
		summary.TotalIntakeKcal += diet.TotalCalories
		summary.TotalProtein += diet.TotalProtein
		summary.TotalFat += diet.TotalFat
		summary.TotalCarbs += diet.TotalCarbs

		exercises, err := s.exerciseRepo.ListByDate(ctx, userID, day)
		if err != nil {
			return nil, nil, err
		}
		if len(exercises) > 0 {
			for _, ex := range exercises {
				summary.TotalBurnKcal += ex.ActualCalories
				summary.TotalExerciseMin += ex.ActualDuration
			}
			summary.ExerciseDays++
		} else {
			items, err := s.tripRepo.ItemsCoveringDate(ctx, userID, day)
			if err != nil {
				return nil, nil, err
			}
			for _, item := range items {
				summary.TotalBurnKcal += item.Cost
				summary.TotalExerciseMin += item.Duration
			}
		}

		if diet.MealCount > 0 {
			summary.DietDays++
		}
		if diet.MealCount > 0 || len(exercises) > 0 {
			summary.ActiveDays++
			activeFlags[i] = true
		}
	}

	divisor := float64(summary.ActiveDays)
	if divisor < 1 {
		divisor = 1
	}
	summary.AvgIntakeKcal = round1(summary.TotalIntakeKcal / divisor)
	summary.AvgProtein = round1(summary.TotalProtein / divisor)
	summary.AvgFat = round1(summary.TotalFat / divisor)
	summary.AvgCarbs = round1(summary.TotalCarbs / divisor)
	summary.AvgBurnKcal = round1(summary.TotalBurnKcal / divisor)
	summary.AvgExerciseMin = round1(float64(summary.TotalExerciseMin) / divisor)
	return summary, activeFlags, nil
}

func evalReduceFat(s *PeriodSummary, basal float64) []GoalDimension {
	calorieTarget := basal*1.2 - 500
	fatRatio := macroRatio(s.AvgFat*kcalPerGramFat, s)

	return []GoalDimension{
		newDimension("热量控制", proximityScore(s.AvgIntakeKcal, calorieTarget),
			s.AvgIntakeKcal, round1(calorieTarget), "千卡/天",
			"减脂期每日摄入应接近基础代谢×1.2再减500千卡"),
		newDimension("脂肪占比", ceilingScore(fatRatio, 30, 5),
			round1(fatRatio), 30, "%",
			"脂肪供能占比建议不超过30%"),
		newDimension("运动消耗", attainmentScore(s.AvgBurnKcal, 300),
			s.AvgBurnKcal, 300, "千卡/天",
			"减脂期建议每日通过运动消耗300千卡"),
	}
}

func evalGainMuscle(s *PeriodSummary, basal, weightKG float64) []GoalDimension {
	proteinTarget := 1.8 * weightKG
	calorieTarget := basal*1.4 + 300

	return []GoalDimension{
		newDimension("蛋白质摄入", attainmentScore(s.AvgProtein, proteinTarget),
			s.AvgProtein, round1(proteinTarget), "克/天",
			"增肌期每日蛋白质建议达到每公斤体重1.8克"),
		newDimension("热量充足", attainmentScore(s.AvgIntakeKcal, calorieTarget),
			s.AvgIntakeKcal, round1(calorieTarget), "千卡/天",
			"增肌需要热量盈余, 目标为基础代谢×1.4再加300千卡"),
		newDimension("运动消耗", attainmentScore(s.AvgBurnKcal, 400),
			s.AvgBurnKcal, 400, "千卡/天",
			"增肌期建议每日训练消耗400千卡"),
	}
}

func evalControlSugar(s *PeriodSummary, basal float64) []GoalDimension {
	calorieTarget := basal * 1.3
	carbRatio := macroRatio(s.AvgCarbs*kcalPerGramCarbs, s)

	return []GoalDimension{
		newDimension("碳水占比", ceilingScore(carbRatio, 50, 4),
			round1(carbRatio), 50, "%",
			"控糖期碳水供能占比建议不超过50%"),
		newDimension("热量控制", bandScore(s.AvgIntakeKcal, calorieTarget, 0.1),
			s.AvgIntakeKcal, round1(calorieTarget), "千卡/天",
			"每日摄入建议保持在基础代谢×1.3的±10%范围内"),
		newDimension("辅助运动", attainmentScore(s.AvgBurnKcal, 250),
			s.AvgBurnKcal, 250, "千卡/天",
			"规律运动有助于血糖稳定, 建议每日消耗250千卡"),
	}
}

func evalBalanced(s *PeriodSummary, days int) []GoalDimension {
	inBand := 0
	for macro, kcal := range map[string]float64{
		"protein": s.AvgProtein * kcalPerGramProtein,
		"fat":     s.AvgFat * kcalPerGramFat,
		"carbs":   s.AvgCarbs * kcalPerGramCarbs,
	} {
		ratio := macroRatio(kcal, s)
		band := nutrientGuidelines[macro]
		if ratio >= band[0] && ratio <= band[1] {
			inBand++
		}
	}

	exerciseRate := float64(s.ExerciseDays) / float64(days) * 100
	dietRate := float64(s.DietDays) / float64(days) * 100

	return []GoalDimension{
		newDimension("营养均衡", round1(float64(inBand)/3*100),
			float64(inBand), 3, "项达标",
			"蛋白质、脂肪、碳水三大营养素供能占比均应落在膳食指南区间"),
		newDimension("运动规律", attainmentScore(exerciseRate, 70),
			round1(exerciseRate), 70, "%",
			"建议每周70%的天数有运动记录"),
		newDimension("饮食规律", attainmentScore(dietRate, 85),
			round1(dietRate), 85, "%",
			"建议每周85%的天数有饮食记录"),
	}
}

func newDimension(name string, score, current, target float64, unit, desc string) GoalDimension {
	score = round1(clampScore(score))
	return GoalDimension{
		Name:        name,
		Score:       score,
		Status:      scoreStatus(score),
		Current:     current,
		Target:      target,
		Unit:        unit,
		Description: desc,
	}
}

// macroRatio returns one macro's share of the average nutrient energy, in %.
func macroRatio(macroKcal float64, s *PeriodSummary) float64 {
	total := s.AvgProtein*kcalPerGramProtein + s.AvgFat*kcalPerGramFat + s.AvgCarbs*kcalPerGramCarbs
	if total <= 0 {
		return 0
	}
	return macroKcal / total * 100
}

// proximityScore gives 100 at the target and loses 2 points per percent
// of deviation in either direction.
func proximityScore(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	deviation := (actual - target) / target
	if deviation < 0 {
		deviation = -deviation
	}
	return 100 - deviation*200
}

// attainmentScore is the plain actual/target ratio on a 100 scale.
func attainmentScore(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return actual / target * 100
}

// ceilingScore gives 100 while actual stays at or under the ceiling and
// subtracts penaltyPerPoint for every percentage point of excess.
func ceilingScore(actual, ceiling, penaltyPerPoint float64) float64 {
	if actual <= ceiling {
		return 100
	}
	return 100 - (actual-ceiling)*penaltyPerPoint
}

// bandScore gives 100 inside the ±band fraction around the target and
// decays by 2 points per percent beyond the band edge.
func bandScore(actual, target, band float64) float64 {
	if target <= 0 {
		return 0
	}
	deviation := (actual - target) / target
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= band {
		return 100
	}
	return 100 - (deviation-band)*200
}

func buildSuggestions(goal string, dims []GoalDimension) []string {
	suggestions := make([]string, 0, len(dims)+1)
	for _, dim := range dims {
		if dim.Status == "excellent" || dim.Status == "good" {
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("「%s」得分%.1f, %s", dim.Name, dim.Score, dim.Description))
	}
	if len(suggestions) == 0 {
		switch goal {
		case model.GoalReduceFat:
			suggestions = append(suggestions, "各项指标表现良好, 继续保持热量缺口和运动习惯")
		case model.GoalGainMuscle:
			suggestions = append(suggestions, "各项指标表现良好, 继续保持蛋白质摄入和训练强度")
		case model.GoalControlSugar:
			suggestions = append(suggestions, "各项指标表现良好, 继续保持低碳饮食和规律运动")
		default:
			suggestions = append(suggestions, "各项指标表现良好, 继续保持均衡饮食和规律作息")
		}
	}
	return suggestions
}
