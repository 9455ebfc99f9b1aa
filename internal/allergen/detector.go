package allergen

import (
	"fmt"
	"strings"
)

// Detected is one allergen class found in a food.
type Detected struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Confidence      string   `json:"confidence"`
	Source          string   `json:"source"`
}

// Result is the detector/fusion output shape.
type Result struct {
	FoodName          string           `json:"food_name"`
	DetectedAllergens []Detected       `json:"detected_allergens"`
	Warnings          []string         `json:"warnings"`
	HasAllergens      bool             `json:"has_allergens"`
	HasWarnings       bool             `json:"has_warnings"`
	DetectionMethods  map[string]int   `json:"detection_methods,omitempty"`
	AIReasoning       string           `json:"ai_reasoning,omitempty"`
}

// Check runs the keyword detector over food name and ingredients.
// Two or more keyword hits in a class give high confidence, exactly one
// gives medium. user_allergens triggers per-user warnings.
func Check(foodName string, ingredients []string, userAllergens []string) *Result {
	haystack := strings.ToLower(foodName)
	if len(ingredients) > 0 {
		haystack += " " + strings.ToLower(strings.Join(ingredients, " "))
	}

	result := &Result{
		FoodName:          foodName,
		DetectedAllergens: []Detected{},
		Warnings:          []string{},
	}

	for _, class := range Taxonomy {
		var matched []string
		for _, kw := range class.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		confidence := ConfidenceMedium
		if len(matched) >= 2 {
			confidence = ConfidenceHigh
		}
		result.DetectedAllergens = append(result.DetectedAllergens, Detected{
			Code:            class.Code,
			Name:            class.NameCN,
			MatchedKeywords: matched,
			Confidence:      confidence,
			Source:          SourceKeyword,
		})
	}

	result.HasAllergens = len(result.DetectedAllergens) > 0
	for _, det := range result.DetectedAllergens {
		if matchesUser(det, userAllergens) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("注意: %s 可能含有您声明过敏的成分「%s」(关键词匹配)", foodName, det.Name))
		}
	}
	result.HasWarnings = len(result.Warnings) > 0
	return result
}

// matchesUser reports whether the user declared this allergen, matching by
// canonical code, English name, Chinese name, or any matched keyword.
func matchesUser(det Detected, userAllergens []string) bool {
	if len(userAllergens) == 0 {
		return false
	}
	class, _ := ClassFor(det.Code)
	for _, token := range userAllergens {
		t := strings.ToLower(strings.TrimSpace(token))
		if t == "" {
			continue
		}
		if t == det.Code || t == strings.ToLower(class.NameEN) || token == class.NameCN {
			return true
		}
		for _, kw := range det.MatchedKeywords {
			if t == strings.ToLower(kw) {
				return true
			}
		}
	}
	return false
}
