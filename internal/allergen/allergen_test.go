package allergen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckKeywordConfidence(t *testing.T) {
	tests := []struct {
		name           string
		foodName       string
		ingredients    []string
		wantCode       string
		wantConfidence string
	}{
		{name: "单关键词中等置信度", foodName: "煎蛋", wantCode: "egg", wantConfidence: ConfidenceMedium},
		{name: "多关键词高置信度", foodName: "蛋炒饭配煎蛋", wantCode: "egg", wantConfidence: ConfidenceHigh},
		{name: "食材参与匹配", foodName: "家常菜", ingredients: []string{"豆腐", "酱油"}, wantCode: "soy", wantConfidence: ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(tt.foodName, tt.ingredients, nil)
			require.True(t, result.HasAllergens)
			var found *Detected
			for i := range result.DetectedAllergens {
				if result.DetectedAllergens[i].Code == tt.wantCode {
					found = &result.DetectedAllergens[i]
				}
			}
			require.NotNil(t, found, "expected code %s", tt.wantCode)
			assert.Equal(t, tt.wantConfidence, found.Confidence)
			assert.Equal(t, SourceKeyword, found.Source)
			assert.NotEmpty(t, found.MatchedKeywords)
		})
	}
}

func TestCheckNoAllergens(t *testing.T) {
	result := Check("白灼菜心", nil, nil)
	assert.False(t, result.HasAllergens)
	assert.False(t, result.HasWarnings)
	assert.Empty(t, result.DetectedAllergens)
}

func TestCheckUserWarnings(t *testing.T) {
	tests := []struct {
		name          string
		userAllergens []string
		wantWarning   bool
	}{
		{name: "按规范代码匹配", userAllergens: []string{"egg"}, wantWarning: true},
		{name: "按中文名匹配", userAllergens: []string{"鸡蛋"}, wantWarning: true},
		{name: "按英文名匹配", userAllergens: []string{"Egg"}, wantWarning: true},
		{name: "无关声明不告警", userAllergens: []string{"peanut"}, wantWarning: false},
		{name: "无声明不告警", userAllergens: nil, wantWarning: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check("蒸蛋", nil, tt.userAllergens)
			assert.Equal(t, tt.wantWarning, result.HasWarnings)
		})
	}
}

func TestMergeProvenance(t *testing.T) {
	keyword := Check("蛋炒饭", nil, nil)
	require.Len(t, keyword.DetectedAllergens, 1)
	require.Equal(t, "egg", keyword.DetectedAllergens[0].Code)

	merged := Merge("蛋炒饭", keyword, []string{"egg", "soy"}, "蛋炒饭含鸡蛋, 可能用酱油调味", nil, nil)

	require.Len(t, merged.DetectedAllergens, 2)
	byCode := make(map[string]Detected)
	for _, det := range merged.DetectedAllergens {
		byCode[det.Code] = det
	}

	egg := byCode["egg"]
	assert.Equal(t, SourceKeywordAI, egg.Source)
	assert.Equal(t, ConfidenceHigh, egg.Confidence)

	soy := byCode["soy"]
	assert.Equal(t, SourceAI, soy.Source)
	assert.Equal(t, ConfidenceMedium, soy.Confidence)

	assert.Equal(t, map[string]int{
		"keyword_count": 1,
		"ai_count":      2,
		"merged_count":  2,
	}, merged.DetectionMethods)
	assert.Equal(t, "蛋炒饭含鸡蛋, 可能用酱油调味", merged.AIReasoning)
}

func TestMergeGraphSource(t *testing.T) {
	keyword := Check("鱼香肉丝", nil, nil)
	merged := Merge("鱼香肉丝", keyword, nil, "", []string{"soy", "wheat"}, nil)

	byCode := make(map[string]Detected)
	for _, det := range merged.DetectedAllergens {
		byCode[det.Code] = det
	}
	require.Contains(t, byCode, "soy")
	require.Contains(t, byCode, "wheat")
	// 鱼香肉丝 matches fish keywords too; graph-only codes stay medium.
	assert.Equal(t, ConfidenceMedium, byCode["wheat"].Confidence)
	assert.Equal(t, SourceGraph, byCode["wheat"].Source)
}

func TestMergeUserWarningsRegenerated(t *testing.T) {
	keyword := Check("蛋炒饭", nil, nil)
	merged := Merge("蛋炒饭", keyword, []string{"soy"}, "", nil, []string{"大豆"})

	require.True(t, merged.HasWarnings)
	assert.Contains(t, merged.Warnings[0], "大豆")
	assert.Contains(t, merged.Warnings[0], "AI推理识别")
}

func TestMergeDropsUnknownCodes(t *testing.T) {
	merged := Merge("白米饭", Check("白米饭", nil, nil),
		[]string{"EGG", "gluten", "unknown", "egg"}, "", nil, nil)

	require.Len(t, merged.DetectedAllergens, 1)
	assert.Equal(t, "egg", merged.DetectedAllergens[0].Code)
}

func TestFilterCanonical(t *testing.T) {
	got := FilterCanonical([]string{" Milk ", "EGG", "egg", "sesame", "tree_nut"})
	assert.Equal(t, []string{"milk", "egg", "tree_nut"}, got)
}
