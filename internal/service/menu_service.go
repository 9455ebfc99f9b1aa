package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"go.uber.org/zap"
)

// menuAnalyzeConcurrency bounds the per-dish analysis fan-out.
const menuAnalyzeConcurrency = 5

// MenuService recognizes menu photos and scores each dish against the
// caller's health goal.
type MenuService interface {
	Recognize(ctx context.Context, userID *int64, image []byte, healthGoal string, userAllergens []string) ([]model.RecognizedDish, error)
	Latest(ctx context.Context, userID int64) (*model.MenuRecognition, error)
}

type menuService struct {
	llm       LLMClient
	nutrition NutritionService
	menuRepo  repository.MenuRecognitionRepository
}

// NewMenuService creates a new instance of MenuService
func NewMenuService(llm LLMClient, nutrition NutritionService, menuRepo repository.MenuRecognitionRepository) MenuService {
	return &menuService{llm: llm, nutrition: nutrition, menuRepo: menuRepo}
}

// Recognize extracts dish names from the image, analyzes each dish with
// bounded parallelism and returns the dishes in recognition order. Upstream
// failures degrade to an empty dish list and per-dish failures become
// zero-nutrition placeholders, never batch failures.
func (s *menuService) Recognize(ctx context.Context, userID *int64, image []byte, healthGoal string, userAllergens []string) ([]model.RecognizedDish, error) {
	names, err := s.extractDishNames(ctx, userID, image)
	if err != nil {
		logger.Warn("菜单识别失败, 返回空菜品列表", zap.Error(err))
		return []model.RecognizedDish{}, nil
	}
	if len(names) == 0 {
		return []model.RecognizedDish{}, nil
	}

	dishes := make([]model.RecognizedDish, len(names))
	sem := make(chan struct{}, menuAnalyzeConcurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(idx int, dishName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := s.nutrition.Analyze(ctx, dishName, userID, userAllergens)
			if err != nil || result == nil {
				logger.Warn("菜单单品分析失败", zap.String("dish", dishName), zap.Error(err))
				dishes[idx] = model.RecognizedDish{
					Name:   dishName,
					Reason: "该菜品分析失败, 营养数据暂不可用",
				}
				return
			}
			dish := model.RecognizedDish{
				Name:     dishName,
				Calories: result.Calories,
				Protein:  result.Protein,
				Fat:      result.Fat,
				Carbs:    result.Carbs,
			}
			dish.IsRecommended, dish.Reason = scoreDish(healthGoal, result)
			dishes[idx] = dish
		}(i, name)
	}
	wg.Wait()

	s.persist(userID, dishes)
	return dishes, nil
}

// Latest returns the most recent recognition for a user.
func (s *menuService) Latest(ctx context.Context, userID int64) (*model.MenuRecognition, error) {
	return s.menuRepo.GetLatestByUser(ctx, userID)
}

// extractDishNames asks the vision model for a bare JSON array of names.
func (s *menuService) extractDishNames(ctx context.Context, userID *int64, image []byte) ([]string, error) {
	prompt := "请识别图片中菜单上的所有菜品名称。只返回一个JSON字符串数组, 不要输出任何其它文字, 例如: [\"番茄炒蛋\", \"清蒸鲈鱼\"]"
	raw, err := s.llm.GenerateVision(ctx, model.CallMenuRecognition, prompt, [][]byte{image}, userID)
	if err != nil {
		return nil, err
	}

	span := extractJSONArray(raw)
	if span == "" {
		return nil, fmt.Errorf("菜单识别响应中未找到JSON数组")
	}
	var names []string
	if err := json.Unmarshal([]byte(span), &names); err != nil {
		return nil, fmt.Errorf("解析菜单识别结果失败: %w", err)
	}

	out := names[:0]
	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// persist writes the recognition row; failures only log.
func (s *menuService) persist(userID *int64, dishes []model.RecognizedDish) {
	if s.menuRepo == nil || userID == nil {
		return
	}
	items := make(model.JSONSlice, len(dishes))
	for i, d := range dishes {
		raw, err := json.Marshal(d)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		items[i] = m
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.menuRepo.Create(ctx, &model.MenuRecognition{UserID: userID, Dishes: items}); err != nil {
		logger.Warn("菜单识别结果保存失败", zap.Error(err))
	}
}

// scoreDish applies the per-goal recommendation rules.
func scoreDish(healthGoal string, r *NutritionResult) (bool, string) {
	switch healthGoal {
	case model.GoalReduceFat:
		if r.Calories < 250 && r.Protein > 15 && r.Fat < 12 {
			return true, "低热量高蛋白, 适合减脂期"
		}
		if r.Calories > 400 || r.Fat > 20 {
			return false, "热量或脂肪偏高, 减脂期不推荐"
		}
		return false, "营养表现一般, 减脂期建议适量"
	case model.GoalGainMuscle:
		if r.Protein > 20 {
			return true, "蛋白质含量高, 适合增肌期"
		}
		if r.Protein < 10 {
			return false, "蛋白质含量偏低, 增肌期不推荐"
		}
		return false, "蛋白质含量中等, 可作为辅助菜品"
	case model.GoalControlSugar:
		if r.Carbs < 20 {
			return true, "碳水化合物较低, 适合控糖"
		}
		if r.Carbs > 40 {
			return false, "碳水化合物偏高, 控糖期不推荐"
		}
		return false, "碳水化合物中等, 控糖期注意份量"
	default:
		if r.Calories < 300 && r.Fat < 15 {
			return true, "热量和脂肪适中, 均衡饮食推荐"
		}
		return false, "热量或脂肪偏高, 建议适量食用"
	}
}
