package allergen

import (
	"fmt"
	"sort"
	"strings"
)

// Merge fuses the keyword detector result with the AI-reported allergen
// codes (and optional recipe-graph codes) into one provenance-annotated
// result. Codes found by both keyword and AI get high confidence; AI-only
// and graph-only codes get medium; keyword-only codes keep the keyword
// rule's confidence.
func Merge(foodName string, keywordResult *Result, aiAllergens []string, aiReasoning string, graphAllergens []string, userAllergens []string) *Result {
	if keywordResult == nil {
		keywordResult = Check(foodName, nil, nil)
	}

	byCode := make(map[string]Detected)
	for _, det := range keywordResult.DetectedAllergens {
		byCode[det.Code] = det
	}

	aiSet := make(map[string]struct{})
	for _, code := range FilterCanonical(aiAllergens) {
		aiSet[code] = struct{}{}
	}
	graphSet := make(map[string]struct{})
	for _, code := range FilterCanonical(graphAllergens) {
		graphSet[code] = struct{}{}
	}

	merged := &Result{
		FoodName:          foodName,
		DetectedAllergens: []Detected{},
		Warnings:          []string{},
		AIReasoning:       aiReasoning,
	}

	union := make(map[string]struct{}, len(byCode)+len(aiSet)+len(graphSet))
	for code := range byCode {
		union[code] = struct{}{}
	}
	for code := range aiSet {
		union[code] = struct{}{}
	}
	for code := range graphSet {
		union[code] = struct{}{}
	}

	codes := make([]string, 0, len(union))
	for code := range union {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		class, _ := ClassFor(code)
		kwDet, fromKeyword := byCode[code]
		_, fromAI := aiSet[code]
		_, fromGraph := graphSet[code]

		det := Detected{Code: code, Name: class.NameCN}
		switch {
		case fromKeyword && fromAI:
			det.Source = SourceKeywordAI
			det.Confidence = ConfidenceHigh
			det.MatchedKeywords = kwDet.MatchedKeywords
		case fromKeyword:
			det.Source = SourceKeyword
			det.Confidence = kwDet.Confidence
			det.MatchedKeywords = kwDet.MatchedKeywords
		case fromAI:
			det.Source = SourceAI
			det.Confidence = ConfidenceMedium
		case fromGraph:
			det.Source = SourceGraph
			det.Confidence = ConfidenceMedium
		}
		merged.DetectedAllergens = append(merged.DetectedAllergens, det)
	}

	merged.HasAllergens = len(merged.DetectedAllergens) > 0
	// merged_count is the size of the keyword/AI union.
	kaUnion := make(map[string]struct{}, len(byCode)+len(aiSet))
	for code := range byCode {
		kaUnion[code] = struct{}{}
	}
	for code := range aiSet {
		kaUnion[code] = struct{}{}
	}
	merged.DetectionMethods = map[string]int{
		"keyword_count": len(byCode),
		"ai_count":      len(aiSet),
		"merged_count":  len(kaUnion),
	}

	for _, det := range merged.DetectedAllergens {
		if !matchesUser(det, userAllergens) {
			continue
		}
		merged.Warnings = append(merged.Warnings,
			fmt.Sprintf("注意: %s 可能含有您声明过敏的成分「%s」(%s)",
				foodName, det.Name, sourceLabel(det.Source)))
	}
	merged.HasWarnings = len(merged.Warnings) > 0
	return merged
}

func sourceLabel(source string) string {
	switch source {
	case SourceKeywordAI:
		return "关键词与AI共同识别"
	case SourceAI:
		return "AI推理识别"
	case SourceGraph:
		return "菜谱知识图谱识别"
	default:
		return "关键词匹配"
	}
}

// Codes returns the canonical codes of the detected allergens in order.
func (r *Result) Codes() []string {
	codes := make([]string, len(r.DetectedAllergens))
	for i, det := range r.DetectedAllergens {
		codes[i] = det.Code
	}
	return codes
}

// Summary renders a short human-readable line, used in analysis narratives.
func (r *Result) Summary() string {
	if !r.HasAllergens {
		return "未检测到常见过敏原"
	}
	names := make([]string, len(r.DetectedAllergens))
	for i, det := range r.DetectedAllergens {
		names[i] = det.Name
	}
	return "可能含有过敏原: " + strings.Join(names, "、")
}
