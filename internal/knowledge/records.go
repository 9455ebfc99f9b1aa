// Package knowledge manages the three offline knowledge bases: food
// nutrition composition, cooking recipes with hidden allergens, and the
// exercise METs table. Each base loads a JSON source file, embeds the
// entries, and stores them in its own vector collection.
package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Collection names. Stable identifiers, also used by the diagnostics API.
const (
	CollectionNutrition = "nutrition_foods"
	CollectionRecipes   = "recipe_graph"
	CollectionExercise  = "exercise_mets"
)

// Record is one knowledge base entry ready for embedding.
type Record interface {
	// Text returns the retrieval-friendly display form that gets embedded.
	Text() string
	// Metadata returns a flat map of scalar values stored alongside the vector.
	Metadata() map[string]any
}

// NutritionRecord is one row of the food composition table.
// Macronutrients are per 100 g.
type NutritionRecord struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Fat         float64 `json:"fat"`
	Carbs       float64 `json:"carbs"`
	Fiber       float64 `json:"fiber"`
	SodiumMG    float64 `json:"sodium_mg"`
	Serving     string  `json:"serving"`
	CookingNote string  `json:"cooking_note"`
}

func (r NutritionRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "食物: %s", r.Name)
	if r.Category != "" {
		fmt.Fprintf(&b, "(%s)", r.Category)
	}
	fmt.Fprintf(&b, "。每100克含热量%.0f千卡, 蛋白质%.1f克, 脂肪%.1f克, 碳水化合物%.1f克, 膳食纤维%.1f克, 钠%.0f毫克。",
		r.Calories, r.Protein, r.Fat, r.Carbs, r.Fiber, r.SodiumMG)
	if r.Serving != "" {
		fmt.Fprintf(&b, "常见份量: %s。", r.Serving)
	}
	if r.CookingNote != "" {
		fmt.Fprintf(&b, "烹饪说明: %s。", r.CookingNote)
	}
	return b.String()
}

func (r NutritionRecord) Metadata() map[string]any {
	return map[string]any{
		"name":         r.Name,
		"category":     r.Category,
		"calories":     r.Calories,
		"protein":      r.Protein,
		"fat":          r.Fat,
		"carbs":        r.Carbs,
		"fiber":        r.Fiber,
		"sodium_mg":    r.SodiumMG,
		"serving":      r.Serving,
		"cooking_note": r.CookingNote,
	}
}

// RecipeRecord is one dish in the recipe graph. Allergen code lists are
// serialized to JSON strings in metadata because metadata values must be
// scalar.
type RecipeRecord struct {
	Name            string   `json:"name"`
	Aliases         []string `json:"aliases"`
	Ingredients     []string `json:"ingredients"`
	AllergenCodes   []string `json:"allergen_codes"`
	HiddenAllergens []string `json:"hidden_allergens"`
	Narrative       string   `json:"narrative"`
}

func (r RecipeRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "菜品: %s", r.Name)
	if len(r.Aliases) > 0 {
		fmt.Fprintf(&b, "(别名: %s)", strings.Join(r.Aliases, "、"))
	}
	if len(r.Ingredients) > 0 {
		fmt.Fprintf(&b, "。主要食材: %s", strings.Join(r.Ingredients, "、"))
	}
	if r.Narrative != "" {
		fmt.Fprintf(&b, "。%s", r.Narrative)
	}
	return b.String()
}

func (r RecipeRecord) Metadata() map[string]any {
	return map[string]any{
		"name":             r.Name,
		"aliases":          mustJSON(r.Aliases),
		"ingredients":      mustJSON(r.Ingredients),
		"allergen_codes":   mustJSON(r.AllergenCodes),
		"hidden_allergens": mustJSON(r.HiddenAllergens),
		"narrative":        r.Narrative,
	}
}

// ExerciseRecord is one row of the exercise METs table.
type ExerciseRecord struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Category    string   `json:"category"`
	METs        float64  `json:"mets"`
	Intensity   string   `json:"intensity"`
	Description string   `json:"description"`
}

func (r ExerciseRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "运动: %s", r.Name)
	if len(r.Aliases) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(r.Aliases, "、"))
	}
	fmt.Fprintf(&b, "。类别: %s, METs值: %.1f, 强度: %s。", r.Category, r.METs, r.Intensity)
	if r.Description != "" {
		b.WriteString(r.Description)
	}
	return b.String()
}

func (r ExerciseRecord) Metadata() map[string]any {
	return map[string]any{
		"name":        r.Name,
		"aliases":     mustJSON(r.Aliases),
		"category":    r.Category,
		"mets":        r.METs,
		"intensity":   r.Intensity,
		"description": r.Description,
	}
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// DecodeStringList parses a JSON string list stored in metadata.
func DecodeStringList(raw any) []string {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
