package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"go.uber.org/zap"
)

// defaultConsumptionRatio is substituted when the after-phase comparison
// call fails; the record still completes.
const defaultConsumptionRatio = 0.75

// MealService runs the two-phase meal before/after diff.
type MealService interface {
	UploadBefore(ctx context.Context, userID int64, imageURL string, image []byte) (*model.MealComparison, error)
	UploadAfter(ctx context.Context, userID, comparisonID int64, imageURL string, image []byte) (*model.MealComparison, error)
	Adjust(ctx context.Context, userID, comparisonID int64, ratio float64) (*model.MealComparison, error)
	Get(ctx context.Context, userID, comparisonID int64) (*model.MealComparison, error)
	List(ctx context.Context, userID int64, status string, limit int) ([]*model.MealComparison, error)
}

type mealService struct {
	llm      LLMClient
	mealRepo repository.MealComparisonRepository
}

// NewMealService creates a new instance of MealService
func NewMealService(llm LLMClient, mealRepo repository.MealComparisonRepository) MealService {
	return &mealService{llm: llm, mealRepo: mealRepo}
}

// UploadBefore extracts per-dish estimates from the before image and opens a
// pending_after record. The features payload is stored verbatim.
func (s *mealService) UploadBefore(ctx context.Context, userID int64, imageURL string, image []byte) (*model.MealComparison, error) {
	prompt := "请识别图片中这餐的所有菜品, 估计每道菜的重量(克)和营养成分。" +
		"只返回一个JSON对象, 字段为: " +
		`{"dishes": [{"name": "菜名", "weight": 数字, "calories": 数字, "protein": 数字, "fat": 数字, "carbs": 数字}], ` +
		`"totals": {"weight": 数字, "calories": 数字, "protein": 数字, "fat": 数字, "carbs": 数字}}`

	comparison := &model.MealComparison{
		UserID:         userID,
		Status:         model.ComparisonPendingAfter,
		BeforeImageURL: imageURL,
	}

	raw, err := s.llm.GenerateVision(ctx, model.CallMealComparison, prompt, [][]byte{image}, &userID)
	if err == nil {
		if features, span, parseErr := parseBeforeFeatures(raw); parseErr == nil {
			comparison.BeforeFeatures = span
			comparison.OriginalCalories = features.Totals.Calories
			comparison.OriginalProtein = features.Totals.Protein
			comparison.OriginalFat = features.Totals.Fat
			comparison.OriginalCarbs = features.Totals.Carbs
		} else {
			logger.Warn("餐前特征解析失败", zap.Error(parseErr))
		}
	} else {
		logger.Warn("餐前图片分析失败", zap.Error(err))
	}

	if err := s.mealRepo.Create(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// UploadAfter closes the record: compares the two images, clamps the ratios
// and computes net macros. The record always completes; comparison-call
// failure substitutes the default ratio.
func (s *mealService) UploadAfter(ctx context.Context, userID, comparisonID int64, imageURL string, image []byte) (*model.MealComparison, error) {
	comparison, err := s.mealRepo.GetByUserAndID(ctx, userID, comparisonID)
	if err != nil {
		return nil, err
	}
	if comparison == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	if comparison.Status != model.ComparisonPendingAfter {
		return nil, apperrors.ErrComparisonConflict
	}

	prompt := "下面第一张图是餐前照片, 第二张图是餐后照片。餐前菜品清单如下:\n" +
		comparison.BeforeFeatures +
		"\n请估计每道菜剩余的比例。只返回一个JSON对象, 字段为: " +
		`{"dishes": [{"name": "菜名", "remaining_ratio": 0到1之间的数字}], ` +
		`"overall_remaining_ratio": 数字, "consumption_ratio": 数字, "comparison_analysis": "文本"}`

	ratio := defaultConsumptionRatio
	analysis := ""

	raw, callErr := s.llm.GenerateVision(ctx, model.CallMealComparison, prompt, [][]byte{image}, &userID)
	if callErr != nil {
		logger.Warn("餐后对比调用失败, 使用默认消耗比例",
			zap.Int64("comparison_id", comparisonID),
			zap.Float64("fallback_ratio", defaultConsumptionRatio),
			zap.Error(callErr))
		analysis = "餐后图片对比暂时不可用, 已按默认消耗比例75%估算"
	} else if features, span, parseErr := parseAfterFeatures(raw); parseErr == nil {
		comparison.AfterFeatures = span
		ratio = clamp01(features.ConsumptionRatio)
		analysis = features.ComparisonAnalysis
	} else {
		logger.Warn("餐后特征解析失败, 使用默认消耗比例",
			zap.Int64("comparison_id", comparisonID),
			zap.Float64("fallback_ratio", defaultConsumptionRatio),
			zap.Error(parseErr))
		analysis = "餐后图片解析失败, 已按默认消耗比例75%估算"
	}

	comparison.AfterImageURL = imageURL
	comparison.Status = model.ComparisonCompleted
	comparison.Analysis = analysis
	applyRatio(comparison, ratio)

	if err := s.mealRepo.Update(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// Adjust recomputes the net macros with a user-supplied ratio. No model call.
func (s *mealService) Adjust(ctx context.Context, userID, comparisonID int64, ratio float64) (*model.MealComparison, error) {
	if ratio < 0 || ratio > 1 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "消耗比例必须在0到1之间")
	}
	comparison, err := s.mealRepo.GetByUserAndID(ctx, userID, comparisonID)
	if err != nil {
		return nil, err
	}
	if comparison == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	if comparison.Status != model.ComparisonCompleted {
		return nil, apperrors.ErrComparisonConflict
	}

	applyRatio(comparison, ratio)
	if err := s.mealRepo.Update(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

func (s *mealService) Get(ctx context.Context, userID, comparisonID int64) (*model.MealComparison, error) {
	comparison, err := s.mealRepo.GetByUserAndID(ctx, userID, comparisonID)
	if err != nil {
		return nil, err
	}
	if comparison == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	return comparison, nil
}

func (s *mealService) List(ctx context.Context, userID int64, status string, limit int) ([]*model.MealComparison, error) {
	return s.mealRepo.ListByUser(ctx, userID, status, limit)
}

// applyRatio sets consumption_ratio and net = original × ratio, one decimal.
func applyRatio(c *model.MealComparison, ratio float64) {
	c.ConsumptionRatio = ratio
	c.NetCalories = round1(c.OriginalCalories * ratio)
	c.NetProtein = round1(c.OriginalProtein * ratio)
	c.NetFat = round1(c.OriginalFat * ratio)
	c.NetCarbs = round1(c.OriginalCarbs * ratio)
}

func parseBeforeFeatures(raw string) (*model.BeforeFeatures, string, error) {
	span := extractJSON(raw)
	if span == "" {
		return nil, "", fmt.Errorf("响应中未找到JSON对象")
	}
	var features model.BeforeFeatures
	if err := json.Unmarshal([]byte(span), &features); err != nil {
		return nil, "", fmt.Errorf("解析餐前特征失败: %w", err)
	}
	// Derive totals when the model omits them.
	if features.Totals.Calories == 0 && len(features.Dishes) > 0 {
		for _, d := range features.Dishes {
			features.Totals.Weight += d.Weight
			features.Totals.Calories += d.Calories
			features.Totals.Protein += d.Protein
			features.Totals.Fat += d.Fat
			features.Totals.Carbs += d.Carbs
		}
	}
	return &features, span, nil
}

func parseAfterFeatures(raw string) (*model.AfterFeatures, string, error) {
	span := extractJSON(raw)
	if span == "" {
		return nil, "", fmt.Errorf("响应中未找到JSON对象")
	}
	var features model.AfterFeatures
	if err := json.Unmarshal([]byte(span), &features); err != nil {
		return nil, "", fmt.Errorf("解析餐后特征失败: %w", err)
	}
	features.OverallRemainingRatio = clamp01(features.OverallRemainingRatio)
	for i := range features.Dishes {
		features.Dishes[i].RemainingRatio = clamp01(features.Dishes[i].RemainingRatio)
	}
	if features.ConsumptionRatio == 0 && features.OverallRemainingRatio > 0 {
		features.ConsumptionRatio = 1 - features.OverallRemainingRatio
	}
	features.ConsumptionRatio = clamp01(features.ConsumptionRatio)
	return &features, span, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
