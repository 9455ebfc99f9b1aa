// Package mets computes exercise energy expenditure from the METs table.
// calories = METs × weight(kg) × duration(h).
package mets

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// DefaultWeightKG is used when the caller has no body weight on file.
const DefaultWeightKG = 70.0

// DefaultMETs is the fallback for unrecognized exercise types.
const DefaultMETs = 3.5

// metsTable maps canonical English exercise names to METs values.
var metsTable = map[string]float64{
	"walking":           3.5,
	"brisk_walking":     4.3,
	"running":           8.0,
	"fast_running":      11.5,
	"jogging":           7.0,
	"cycling":           6.8,
	"mountain_biking":   8.5,
	"swimming":          7.0,
	"hiking":            6.0,
	"climbing":          8.0,
	"yoga":              2.5,
	"pilates":           3.0,
	"tai_chi":           3.0,
	"strength_training": 5.0,
	"weightlifting":     6.0,
	"basketball":        6.5,
	"soccer":            7.0,
	"badminton":         5.5,
	"tennis":            7.3,
	"table_tennis":      4.0,
	"volleyball":        4.0,
	"jump_rope":         11.0,
	"dancing":           4.8,
	"aerobics":          7.3,
	"rowing":            7.0,
	"elliptical":        5.0,
	"stair_climbing":    8.8,
	"skating":           7.0,
	"skiing":            7.0,
	"golf":              4.3,
	// plan-item place types that double as exercise tags
	"park":    3.5,
	"gym":     5.0,
	"indoor":  4.0,
	"outdoor": 4.5,
}

// aliasTable maps Chinese exercise names to canonical English names.
var aliasTable = map[string]string{
	"散步":   "walking",
	"步行":   "walking",
	"健走":   "brisk_walking",
	"快走":   "brisk_walking",
	"跑步":   "running",
	"慢跑":   "jogging",
	"快跑":   "fast_running",
	"骑行":   "cycling",
	"骑车":   "cycling",
	"单车":   "cycling",
	"游泳":   "swimming",
	"徒步":   "hiking",
	"爬山":   "hiking",
	"登山":   "climbing",
	"瑜伽":   "yoga",
	"普拉提":  "pilates",
	"太极":   "tai_chi",
	"力量训练": "strength_training",
	"举铁":   "weightlifting",
	"撸铁":   "weightlifting",
	"健身":   "strength_training",
	"篮球":   "basketball",
	"足球":   "soccer",
	"羽毛球":  "badminton",
	"网球":   "tennis",
	"乒乓球":  "table_tennis",
	"排球":   "volleyball",
	"跳绳":   "jump_rope",
	"跳舞":   "dancing",
	"舞蹈":   "dancing",
	"有氧操":  "aerobics",
	"划船":   "rowing",
	"椭圆机":  "elliptical",
	"爬楼梯":  "stair_climbing",
	"爬楼":   "stair_climbing",
	"滑冰":   "skating",
	"滑雪":   "skiing",
	"高尔夫":  "golf",
}

// KBLookup is an optional retrieval hook consulted before the built-in
// table; the knowledge manager satisfies it.
type KBLookup interface {
	ExerciseMETs(ctx context.Context, query string, maxDistance float64) (float64, bool, error)
}

// Calculator resolves exercise types to METs values and computes calories.
// kb may be nil, in which case only the built-in tables are used.
type Calculator struct {
	kb KBLookup
}

func NewCalculator(kb KBLookup) *Calculator {
	return &Calculator{kb: kb}
}

// Lookup normalizes an exercise type to a METs value. Resolution order:
// exact English match, Chinese alias, substring match against both tables,
// then DefaultMETs.
func Lookup(exerciseType string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(exerciseType))
	if normalized == "" {
		return DefaultMETs
	}
	if v, ok := metsTable[normalized]; ok {
		return v
	}
	if canonical, ok := aliasTable[normalized]; ok {
		return metsTable[canonical]
	}
	for name, v := range metsTable {
		if strings.Contains(normalized, name) || strings.Contains(name, normalized) {
			return v
		}
	}
	for alias, canonical := range aliasTable {
		if strings.Contains(normalized, alias) || strings.Contains(alias, normalized) {
			return metsTable[canonical]
		}
	}
	return DefaultMETs
}

// Resolve looks up a METs value, consulting the knowledge base first when
// available. KB errors fall through to the built-in table silently.
func (c *Calculator) Resolve(ctx context.Context, exerciseType string) float64 {
	if c.kb != nil {
		if v, ok, err := c.kb.ExerciseMETs(ctx, exerciseType, 1.5); err == nil && ok && v > 0 {
			return v
		}
	}
	return Lookup(exerciseType)
}

// Calories computes kcal burned. Missing or non-positive weight falls back
// to DefaultWeightKG; non-positive duration returns 0.
func (c *Calculator) Calories(ctx context.Context, exerciseType string, weightKG float64, durationMin int) float64 {
	if durationMin <= 0 {
		return 0
	}
	if weightKG <= 0 {
		weightKG = DefaultWeightKG
	}
	m := c.Resolve(ctx, exerciseType)
	return m * weightKG * float64(durationMin) / 60
}

// DurationForTarget inverts Calories: the minutes needed to burn targetKcal,
// never less than one minute.
func (c *Calculator) DurationForTarget(ctx context.Context, exerciseType string, weightKG, targetKcal float64) int {
	if targetKcal <= 0 {
		return 1
	}
	if weightKG <= 0 {
		weightKG = DefaultWeightKG
	}
	m := c.Resolve(ctx, exerciseType)
	minutes := int(math.Round(targetKcal / (m * weightKG) * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Basis renders the human-readable calculation trail stored on plan items.
func Basis(exerciseType string, metsValue, weightKG float64, durationMin int, kcal float64) string {
	return fmt.Sprintf("%s: METs %.1f × 体重 %.0fkg × %d分钟/60 ≈ %.0f千卡",
		exerciseType, metsValue, weightKG, durationMin, kcal)
}
