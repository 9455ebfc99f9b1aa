package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/allergen"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/knowledge"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"go.uber.org/zap"
)

// CookingMethodComparison contrasts one preparation style against the base dish.
type CookingMethodComparison struct {
	Method      string  `json:"method"`
	Calories    float64 `json:"calories"`
	Fat         float64 `json:"fat"`
	Description string  `json:"description"`
}

// NutritionResult is the analyzer output for one dish.
type NutritionResult struct {
	Name                     string                    `json:"name"`
	Calories                 float64                   `json:"calories"`
	Protein                  float64                   `json:"protein"`
	Fat                      float64                   `json:"fat"`
	Carbs                    float64                   `json:"carbs"`
	Recommendation           string                    `json:"recommendation"`
	Allergens                []string                  `json:"allergens"`
	AllergenReasoning        string                    `json:"allergen_reasoning"`
	CookingMethodComparisons []CookingMethodComparison `json:"cooking_method_comparisons"`
	AllergenDetail           *allergen.Result          `json:"allergen_detail,omitempty"`
}

// NutritionService analyzes dishes with retrieval-augmented model calls.
type NutritionService interface {
	Analyze(ctx context.Context, foodName string, userID *int64, userAllergens []string) (*NutritionResult, error)
}

type nutritionService struct {
	llm       LLMClient
	knowledge *knowledge.Manager
}

// NewNutritionService creates a new instance of NutritionService
func NewNutritionService(llm LLMClient, km *knowledge.Manager) NutritionService {
	return &nutritionService{llm: llm, knowledge: km}
}

// Analyze runs the full pipeline: RAG context, prompt, model call, lenient
// parse, allergen fusion. It never propagates parse or upstream errors; a
// zeroed default result is returned instead.
func (s *nutritionService) Analyze(ctx context.Context, foodName string, userID *int64, userAllergens []string) (*NutritionResult, error) {
	ragContext := ""
	if s.knowledge != nil {
		if _, err := s.knowledge.EnsureInitialized(ctx); err == nil {
			if text, err := s.knowledge.NutritionContext(ctx, foodName); err == nil {
				ragContext = text
			} else {
				logger.Warn("营养知识库检索失败", zap.String("food", foodName), zap.Error(err))
			}
		}
	}

	prompt := buildNutritionPrompt(foodName, ragContext)
	raw, err := s.llm.Generate(ctx, model.CallFoodAnalysis, prompt, userID)
	if err != nil {
		logger.Warn("菜品营养分析调用失败, 返回默认结果",
			zap.String("food", foodName), zap.Error(err))
		return s.defaultResult(foodName, userAllergens), nil
	}

	result, parseErr := parseNutritionResponse(foodName, raw)
	if parseErr != nil {
		logger.Warn("菜品营养分析解析失败, 返回默认结果",
			zap.String("food", foodName), zap.Error(parseErr))
		return s.defaultResult(foodName, userAllergens), nil
	}

	result.AllergenDetail = s.fuseAllergens(ctx, foodName, result, userAllergens)
	result.Allergens = result.AllergenDetail.Codes()
	return result, nil
}

// fuseAllergens merges the keyword detector, the AI-reported codes and the
// recipe-graph hints into one provenance-annotated result.
func (s *nutritionService) fuseAllergens(ctx context.Context, foodName string, result *NutritionResult, userAllergens []string) *allergen.Result {
	keyword := allergen.Check(foodName, nil, userAllergens)

	var graphCodes []string
	if s.knowledge != nil {
		codes, err := s.knowledge.HiddenAllergens(ctx, foodName, 0.8)
		if err != nil {
			logger.Warn("菜谱图谱过敏原查询失败", zap.String("food", foodName), zap.Error(err))
		} else {
			graphCodes = codes
		}
	}
	return allergen.Merge(foodName, keyword, result.Allergens, result.AllergenReasoning, graphCodes, userAllergens)
}

func (s *nutritionService) defaultResult(foodName string, userAllergens []string) *NutritionResult {
	keyword := allergen.Check(foodName, nil, userAllergens)
	merged := allergen.Merge(foodName, keyword, nil, "", nil, userAllergens)
	return &NutritionResult{
		Name:                     foodName,
		Recommendation:           "暂时无法获取营养数据, 请稍后重试或手动填写",
		Allergens:                []string{},
		CookingMethodComparisons: []CookingMethodComparison{},
		AllergenDetail:           merged,
	}
}

func buildNutritionPrompt(foodName, ragContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请分析菜品「%s」的营养成分。\n\n", foodName)
	if ragContext != "" {
		b.WriteString(ragContext)
		b.WriteString("\n\n")
	}
	b.WriteString("要求:\n")
	b.WriteString("1. 给出整份菜品的热量(千卡)、蛋白质、脂肪、碳水化合物(克)\n")
	b.WriteString("2. 给出一句针对健康饮食的建议\n")
	b.WriteString("3. 从以下八类过敏原代码中选出该菜品可能含有的: ")
	codes := make([]string, 0, len(allergen.Taxonomy))
	for _, class := range allergen.Taxonomy {
		codes = append(codes, fmt.Sprintf("%s(%s)", class.Code, class.NameCN))
	}
	b.WriteString(strings.Join(codes, ", "))
	b.WriteString("\n4. 简述过敏原判断理由\n")
	b.WriteString("5. 列出不同烹饪方式下的热量和脂肪差异\n\n")
	b.WriteString("只返回一个JSON对象, 不要输出任何其它文字, 字段为: ")
	b.WriteString(`{"calories": 数字, "protein": 数字, "fat": 数字, "carbs": 数字, "recommendation": "文本", "allergens": ["code"], "allergen_reasoning": "文本", "cooking_method_comparisons": [{"method": "文本", "calories": 数字, "fat": 数字, "description": "文本"}]}`)
	b.WriteString("\n\n示例1: 番茄炒蛋 → ")
	b.WriteString(`{"calories": 360, "protein": 22, "fat": 25, "carbs": 15, "recommendation": "控制用油量可明显降低热量", "allergens": ["egg"], "allergen_reasoning": "菜品以鸡蛋为主料", "cooking_method_comparisons": [{"method": "少油版", "calories": 280, "fat": 16, "description": "减少三分之一用油"}]}`)
	b.WriteString("\n示例2: 白灼西兰花 → ")
	b.WriteString(`{"calories": 68, "protein": 5.6, "fat": 0.8, "carbs": 13.2, "recommendation": "优质膳食纤维来源, 适合减脂期", "allergens": [], "allergen_reasoning": "纯蔬菜, 不含常见过敏原", "cooking_method_comparisons": []}`)
	return b.String()
}

// parseNutritionResponse leniently parses the first JSON object span and
// validates field by field.
func parseNutritionResponse(foodName, raw string) (*NutritionResult, error) {
	span := extractJSON(raw)
	if span == "" {
		return nil, fmt.Errorf("响应中未找到JSON对象")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, fmt.Errorf("解析营养JSON失败: %w", err)
	}

	result := &NutritionResult{
		Name:                     foodName,
		Calories:                 asFloat(payload["calories"], 0),
		Protein:                  asFloat(payload["protein"], 0),
		Fat:                      asFloat(payload["fat"], 0),
		Carbs:                    asFloat(payload["carbs"], 0),
		Recommendation:           asString(payload["recommendation"]),
		Allergens:                allergen.FilterCanonical(asStringSlice(payload["allergens"])),
		AllergenReasoning:        asString(payload["allergen_reasoning"]),
		CookingMethodComparisons: []CookingMethodComparison{},
	}

	if items, ok := payload["cooking_method_comparisons"].([]any); ok {
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			result.CookingMethodComparisons = append(result.CookingMethodComparisons, CookingMethodComparison{
				Method:      asString(entry["method"]),
				Calories:    asFloat(entry["calories"], 0),
				Fat:         asFloat(entry["fat"], 0),
				Description: asString(entry["description"]),
			})
		}
	}
	return result, nil
}
