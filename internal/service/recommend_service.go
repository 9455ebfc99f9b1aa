package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/allergen"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

// preferenceKeywords drive the fuzzy overlap bonus between a candidate and
// the user's frequently eaten dishes.
var preferenceKeywords = []string{"鱼", "虾", "鸡", "牛", "豆", "蛋", "菜", "粥"}

// CatalogFood is one candidate dish in the built-in recommendation catalog.
type CatalogFood struct {
	Name      string
	Calories  float64
	Protein   float64
	Fat       float64
	Carbs     float64
	MealTypes []string
	Allergens []string
}

// FoodRecommendation is one scored recommendation returned to the caller.
type FoodRecommendation struct {
	FoodName string   `json:"food_name"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Fat      float64  `json:"fat"`
	Carbs    float64  `json:"carbs"`
	Score    float64  `json:"score"`
	Reason   string   `json:"reason"`
	Tags     []string `json:"tags"`
}

// RecommendResult wraps the list with the budget context it was scored in.
type RecommendResult struct {
	MealType        string               `json:"meal_type"`
	DailyTargetKcal float64              `json:"daily_target_kcal"`
	TodayIntakeKcal float64              `json:"today_intake_kcal"`
	RemainingKcal   float64              `json:"remaining_kcal"`
	Recommendations []FoodRecommendation `json:"recommendations"`
}

// RecommendService scores catalog dishes against the user's goal, budget,
// history and allergens.
type RecommendService interface {
	Recommend(ctx context.Context, userID int64, mealType string, limit int) (*RecommendResult, error)
}

type recommendService struct {
	userRepo repository.UserRepository
	dietRepo repository.DietRecordRepository
	catalog  []CatalogFood
}

// NewRecommendService creates a new instance of RecommendService
func NewRecommendService(userRepo repository.UserRepository, dietRepo repository.DietRecordRepository) RecommendService {
	return &recommendService{
		userRepo: userRepo,
		dietRepo: dietRepo,
		catalog:  defaultCatalog,
	}
}

func (s *recommendService) Recommend(ctx context.Context, userID int64, mealType string, limit int) (*RecommendResult, error) {
	if limit <= 0 {
		limit = 5
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	goal := model.GoalUnset
	userAllergens := []string{}
	if user != nil {
		goal = user.HealthGoal
		userAllergens = allergen.FilterCanonical(user.Allergens)
	}

	target := dailyTargetKcal(user)
	today := time.Now()

	summary, err := s.dietRepo.GetDailySummary(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	remaining := math.Max(0, target-summary.TotalCalories)

	since := today.AddDate(0, 0, -30)
	history, err := s.dietRepo.GetFoodFrequency(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	historyCount := make(map[string]int64, len(history))
	for _, fc := range history {
		historyCount[fc.FoodName] = fc.Count
	}

	todayRecords, err := s.dietRepo.ListByDate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	eatenToday := make(map[string]bool, len(todayRecords))
	for _, rec := range todayRecords {
		eatenToday[rec.FoodName] = true
	}

	result := &RecommendResult{
		MealType:        mealType,
		DailyTargetKcal: round1(target),
		TodayIntakeKcal: summary.TotalCalories,
		RemainingKcal:   round1(remaining),
		Recommendations: []FoodRecommendation{},
	}

	for _, food := range s.catalog {
		if !containsString(food.MealTypes, mealType) {
			continue
		}
		if overlaps(food.Allergens, userAllergens) {
			continue
		}

		goalScore, goalReason := scoreByGoal(goal, food)
		fitScore, fitReason := scoreCalorieFit(food.Calories, remaining)
		prefScore, prefReason := s.scorePreference(food.Name, historyCount)
		varietyScore := 15.0
		if eatenToday[food.Name] {
			varietyScore = 0
		}

		total := round1(clampScore(goalScore + fitScore + prefScore + varietyScore))
		result.Recommendations = append(result.Recommendations, FoodRecommendation{
			FoodName: food.Name,
			Calories: food.Calories,
			Protein:  food.Protein,
			Fat:      food.Fat,
			Carbs:    food.Carbs,
			Score:    total,
			Reason:   joinReasons(goalReason, fitReason, prefReason),
			Tags:     nutrientTags(food),
		})
	}

	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].Score > result.Recommendations[j].Score
	})
	if len(result.Recommendations) > limit {
		result.Recommendations = result.Recommendations[:limit]
	}
	return result, nil
}

// dailyTargetKcal is Mifflin-St Jeor × 1.375 shifted by the health goal.
func dailyTargetKcal(user *model.User) float64 {
	target := bmr(user) * 1.375
	if user == nil {
		return target
	}
	switch user.HealthGoal {
	case model.GoalReduceFat:
		target -= 500
	case model.GoalGainMuscle:
		target += 300
	}
	return target
}

// scoreByGoal maps the goal rubric onto the 40-point scale.
func scoreByGoal(goal string, food CatalogFood) (float64, string) {
	switch goal {
	case model.GoalReduceFat:
		score := 0.0
		if food.Calories <= 200 {
			score += 15
		} else if food.Calories <= 300 {
			score += 8
		}
		if food.Protein >= 15 {
			score += 15
		} else if food.Protein >= 10 {
			score += 8
		}
		if food.Fat <= 5 {
			score += 10
		} else if food.Fat <= 10 {
			score += 5
		}
		return score, "低热量高蛋白, 适合减脂期"
	case model.GoalGainMuscle:
		score := 0.0
		if food.Protein >= 20 {
			score += 25
		} else if food.Protein >= 12 {
			score += 15
		} else if food.Protein >= 8 {
			score += 6
		}
		if food.Calories >= 150 && food.Calories <= 350 {
			score += 15
		}
		return score, "蛋白质充足, 有助于增肌"
	case model.GoalControlSugar:
		score := 0.0
		if food.Carbs <= 10 {
			score += 25
		} else if food.Carbs <= 20 {
			score += 15
		} else if food.Carbs <= 30 {
			score += 6
		}
		if food.Protein >= 12 {
			score += 15
		} else if food.Protein >= 8 {
			score += 8
		}
		return score, "低碳水, 有利于血糖平稳"
	default:
		score := 0.0
		total := food.Protein*kcalPerGramProtein + food.Fat*kcalPerGramFat + food.Carbs*kcalPerGramCarbs
		if total > 0 {
			inBand := 0
			for macro, kcal := range map[string]float64{
				"protein": food.Protein * kcalPerGramProtein,
				"fat":     food.Fat * kcalPerGramFat,
				"carbs":   food.Carbs * kcalPerGramCarbs,
			} {
				band := nutrientGuidelines[macro]
				ratio := kcal / total * 100
				if ratio >= band[0] && ratio <= band[1] {
					inBand++
				}
			}
			score += float64(inBand) * 8
		}
		if food.Calories >= 150 && food.Calories <= 400 {
			score += 16
		}
		return score, "营养搭配均衡"
	}
}

// scoreCalorieFit peaks at 30 when the candidate lands inside
// [0.1, 0.5] of the remaining budget and decays linearly outside.
func scoreCalorieFit(calories, remaining float64) (float64, string) {
	if remaining <= 0 {
		if calories <= 50 {
			return 20, "今日热量预算已用完, 仅适合极低热量食物"
		}
		return 5, "今日热量预算已用完"
	}

	low := 0.1 * remaining
	high := 0.5 * remaining
	switch {
	case calories >= low && calories <= high:
		return 30, fmt.Sprintf("热量与剩余预算%.0f千卡匹配", remaining)
	case calories < low:
		if low <= 0 {
			return 30, ""
		}
		return clampScoreTo(30*calories/low, 30), "热量偏低, 可搭配其他食物"
	default:
		over := (calories - high) / remaining
		return clampScoreTo(30-over*60, 30), "热量偏高, 注意控制份量"
	}
}

// scorePreference rewards the exact dish's 30-day frequency plus a keyword
// overlap bonus against the rest of the history.
func (s *recommendService) scorePreference(name string, historyCount map[string]int64) (float64, string) {
	score := math.Min(10, float64(historyCount[name])*2.5)

	var bonus float64
	for _, kw := range preferenceKeywords {
		if !strings.Contains(name, kw) {
			continue
		}
		for dish, count := range historyCount {
			if dish != name && count >= 2 && strings.Contains(dish, kw) {
				bonus += 2.5
				break
			}
		}
	}
	score += math.Min(5, bonus)

	if score >= 8 {
		return score, "符合您的日常饮食偏好"
	}
	if score > 0 {
		return score, "与您常吃的菜品口味相近"
	}
	return 0, ""
}

func nutrientTags(food CatalogFood) []string {
	tags := []string{}
	if food.Calories <= 100 {
		tags = append(tags, "低热量")
	}
	if food.Calories >= 300 {
		tags = append(tags, "高热量")
	}
	if food.Protein >= 15 {
		tags = append(tags, "高蛋白")
	}
	if food.Fat <= 3 {
		tags = append(tags, "低脂")
	}
	if food.Fat >= 20 {
		tags = append(tags, "高脂")
	}
	if food.Carbs <= 5 {
		tags = append(tags, "低碳水")
	}
	if food.Carbs >= 30 {
		tags = append(tags, "高碳水")
	}
	return tags
}

func joinReasons(reasons ...string) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "; ")
}

func clampScoreTo(v, max float64) float64 {
	return math.Max(0, math.Min(max, v))
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// defaultCatalog is the built-in candidate pool. Nutrition values are
// per serving.
var defaultCatalog = []CatalogFood{
	{Name: "燕麦粥", Calories: 150, Protein: 5, Fat: 3, Carbs: 27, MealTypes: []string{model.MealBreakfast}, Allergens: []string{"wheat"}},
	{Name: "水煮蛋", Calories: 78, Protein: 6.3, Fat: 5.3, Carbs: 0.6, MealTypes: []string{model.MealBreakfast, model.MealSnack}, Allergens: []string{"egg"}},
	{Name: "全麦面包", Calories: 120, Protein: 4, Fat: 2, Carbs: 22, MealTypes: []string{model.MealBreakfast}, Allergens: []string{"wheat"}},
	{Name: "豆浆", Calories: 65, Protein: 3.6, Fat: 1.6, Carbs: 9, MealTypes: []string{model.MealBreakfast}, Allergens: []string{"soy"}},
	{Name: "小米粥", Calories: 105, Protein: 2.5, Fat: 0.8, Carbs: 22, MealTypes: []string{model.MealBreakfast}, Allergens: []string{}},
	{Name: "蒸红薯", Calories: 99, Protein: 1.1, Fat: 0.2, Carbs: 23, MealTypes: []string{model.MealBreakfast, model.MealSnack}, Allergens: []string{}},
	{Name: "清蒸鲈鱼", Calories: 180, Protein: 26, Fat: 8, Carbs: 0, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"fish"}},
	{Name: "白灼虾", Calories: 95, Protein: 20, Fat: 1.2, Carbs: 0.5, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"shellfish"}},
	{Name: "鸡胸肉沙拉", Calories: 220, Protein: 30, Fat: 8, Carbs: 6, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"egg"}},
	{Name: "番茄炒蛋", Calories: 155, Protein: 9, Fat: 10, Carbs: 7, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"egg"}},
	{Name: "西兰花炒牛肉", Calories: 210, Protein: 24, Fat: 10, Carbs: 6, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{}},
	{Name: "麻婆豆腐", Calories: 230, Protein: 13, Fat: 16, Carbs: 9, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"soy"}},
	{Name: "糙米饭", Calories: 218, Protein: 4.5, Fat: 1.6, Carbs: 45, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{}},
	{Name: "紫菜蛋花汤", Calories: 45, Protein: 3.5, Fat: 2, Carbs: 3, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"egg"}},
	{Name: "凉拌黄瓜", Calories: 40, Protein: 1.5, Fat: 2, Carbs: 5, MealTypes: []string{model.MealLunch, model.MealDinner, model.MealSnack}, Allergens: []string{}},
	{Name: "冬瓜排骨汤", Calories: 160, Protein: 12, Fat: 10, Carbs: 4, MealTypes: []string{model.MealDinner}, Allergens: []string{}},
	{Name: "香煎三文鱼", Calories: 280, Protein: 25, Fat: 18, Carbs: 1, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{"fish"}},
	{Name: "蒜蓉西兰花", Calories: 80, Protein: 4, Fat: 3, Carbs: 10, MealTypes: []string{model.MealLunch, model.MealDinner}, Allergens: []string{}},
	{Name: "无糖酸奶", Calories: 90, Protein: 5.5, Fat: 4.5, Carbs: 7, MealTypes: []string{model.MealBreakfast, model.MealSnack}, Allergens: []string{"milk"}},
	{Name: "原味坚果", Calories: 180, Protein: 5, Fat: 16, Carbs: 6, MealTypes: []string{model.MealSnack}, Allergens: []string{"tree_nut", "peanut"}},
	{Name: "苹果", Calories: 95, Protein: 0.5, Fat: 0.3, Carbs: 25, MealTypes: []string{model.MealSnack}, Allergens: []string{}},
	{Name: "香蕉", Calories: 105, Protein: 1.3, Fat: 0.4, Carbs: 27, MealTypes: []string{model.MealSnack}, Allergens: []string{}},
	{Name: "鸡蛋羹", Calories: 85, Protein: 7, Fat: 5.5, Carbs: 1.5, MealTypes: []string{model.MealBreakfast, model.MealDinner}, Allergens: []string{"egg"}},
	{Name: "牛奶", Calories: 130, Protein: 6.4, Fat: 7.4, Carbs: 9.6, MealTypes: []string{model.MealBreakfast, model.MealSnack}, Allergens: []string{"milk"}},
}
