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

// AllergenCategory is one catalog entry returned by the categories view.
type AllergenCategory struct {
	Code        string `json:"code"`
	NameCN      string `json:"name_cn"`
	NameEN      string `json:"name_en"`
	Description string `json:"description"`
}

// AllergenService runs the standalone allergen check endpoint
type AllergenService interface {
	Check(ctx context.Context, userID *int64, foodName string, ingredients, userAllergens []string) (*allergen.Result, error)
	Categories() []AllergenCategory
}

type allergenService struct {
	llm       LLMClient
	knowledge *knowledge.Manager
}

// NewAllergenService creates a new instance of AllergenService
func NewAllergenService(llm LLMClient, kb *knowledge.Manager) AllergenService {
	return &allergenService{llm: llm, knowledge: kb}
}

// Check merges the keyword detector with AI inference and the recipe-graph
// hidden allergens. AI failure degrades to keyword+graph only.
func (s *allergenService) Check(ctx context.Context, userID *int64, foodName string, ingredients, userAllergens []string) (*allergen.Result, error) {
	keyword := allergen.Check(foodName, ingredients, userAllergens)

	var aiCodes []string
	var aiReasoning string
	if s.llm != nil {
		codes, reasoning, err := s.inferAllergens(ctx, userID, foodName, ingredients)
		if err != nil {
			logger.Logger.Warn("过敏原AI推理失败, 仅使用关键词与图谱结果",
				zap.String("food_name", foodName),
				zap.Error(err))
		} else {
			aiCodes = codes
			aiReasoning = reasoning
		}
	}

	var graphCodes []string
	if s.knowledge != nil {
		if _, err := s.knowledge.EnsureInitialized(ctx); err == nil {
			codes, err := s.knowledge.HiddenAllergens(ctx, foodName, 0.8)
			if err == nil {
				graphCodes = codes
			}
		}
	}

	return allergen.Merge(foodName, keyword, aiCodes, aiReasoning, graphCodes, userAllergens), nil
}

// Categories returns the fixed eight-class catalog without keyword sets.
func (s *allergenService) Categories() []AllergenCategory {
	categories := make([]AllergenCategory, 0, len(allergen.Taxonomy))
	for _, class := range allergen.Taxonomy {
		categories = append(categories, AllergenCategory{
			Code:        class.Code,
			NameCN:      class.NameCN,
			NameEN:      class.NameEN,
			Description: class.Description,
		})
	}
	return categories
}

func (s *allergenService) inferAllergens(ctx context.Context, userID *int64, foodName string, ingredients []string) ([]string, string, error) {
	prompt := buildAllergenPrompt(foodName, ingredients)
	raw, err := s.llm.Generate(ctx, model.CallAllergenCheck, prompt, userID)
	if err != nil {
		return nil, "", err
	}

	span := extractJSON(raw)
	if span == "" {
		return nil, "", fmt.Errorf("响应中未找到JSON: %s", model.TruncateSummary(raw))
	}
	var parsed struct {
		Allergens []string `json:"allergens"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, "", fmt.Errorf("解析过敏原JSON失败: %w", err)
	}
	return allergen.FilterCanonical(parsed.Allergens), parsed.Reasoning, nil
}

func buildAllergenPrompt(foodName string, ingredients []string) string {
	var b strings.Builder
	b.WriteString("你是食品安全专家。请分析以下菜品可能含有的过敏原。\n\n")
	b.WriteString(fmt.Sprintf("菜品: %s\n", foodName))
	if len(ingredients) > 0 {
		b.WriteString(fmt.Sprintf("已知配料: %s\n", strings.Join(ingredients, "、")))
	}
	b.WriteString("\n过敏原只能从以下8类中选择(使用英文代码):\n")
	for _, class := range allergen.Taxonomy {
		b.WriteString(fmt.Sprintf("- %s: %s(%s)\n", class.Code, class.NameCN, class.Description))
	}
	b.WriteString("\n严格返回如下JSON, 不要输出其他内容:\n")
	b.WriteString(`{"allergens": ["code1", "code2"], "reasoning": "推理过程"}`)
	return b.String()
}
