package mets

import (
	"context"
	"math"
	"testing"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name         string
		exerciseType string
		want         float64
	}{
		{name: "英文精确匹配", exerciseType: "running", want: 8.0},
		{name: "大小写不敏感", exerciseType: "Running", want: 8.0},
		{name: "中文别名", exerciseType: "跑步", want: 8.0},
		{name: "中文别名瑜伽", exerciseType: "瑜伽", want: 2.5},
		{name: "子串匹配英文", exerciseType: "morning running session", want: 8.0},
		{name: "子串匹配中文", exerciseType: "公园跑步30分钟", want: 8.0},
		{name: "未知类型兜底", exerciseType: "量子波动速读", want: DefaultMETs},
		{name: "空类型兜底", exerciseType: "", want: DefaultMETs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.exerciseType))
		})
	}
}

func TestCalories(t *testing.T) {
	calc := NewCalculator(nil)
	ctx := context.Background()

	// 8.0 METs × 70kg × 30/60 = 280 kcal
	assert.InDelta(t, 280, calc.Calories(ctx, "running", 70, 30), 0.001)

	// Missing weight falls back to 70 kg.
	assert.InDelta(t, 280, calc.Calories(ctx, "running", 0, 30), 0.001)
	assert.InDelta(t, 280, calc.Calories(ctx, "running", -5, 30), 0.001)

	// Non-positive duration is zero.
	assert.Zero(t, calc.Calories(ctx, "running", 70, 0))
	assert.Zero(t, calc.Calories(ctx, "running", 70, -10))
}

func TestDurationForTarget(t *testing.T) {
	calc := NewCalculator(nil)
	ctx := context.Background()

	assert.Equal(t, 32, calc.DurationForTarget(ctx, "running", 70, 300))
	assert.Equal(t, 1, calc.DurationForTarget(ctx, "running", 70, 0.5))
	assert.Equal(t, 1, calc.DurationForTarget(ctx, "running", 70, 0))
}

// Inversion: calories(duration_for_target(target)) stays within 5% of the
// target for realistic inputs.
func TestInversionProperty(t *testing.T) {
	calc := NewCalculator(nil)
	ctx := context.Background()

	types := []string{"running", "walking", "swimming", "瑜伽", "cycling", "未知运动"}
	weights := []float64{50, 70, 90}
	targets := []float64{100, 250, 400, 800}

	for _, typ := range types {
		for _, w := range weights {
			for _, target := range targets {
				minutes := calc.DurationForTarget(ctx, typ, w, target)
				got := calc.Calories(ctx, typ, w, minutes)
				diff := math.Abs(got - target)
				assert.LessOrEqual(t, diff, 0.05*target,
					"type=%s weight=%v target=%v minutes=%d got=%v", typ, w, target, minutes, got)
			}
		}
	}
}

type stubKB struct {
	mets float64
	ok   bool
}

func (s stubKB) ExerciseMETs(_ context.Context, _ string, _ float64) (float64, bool, error) {
	return s.mets, s.ok, nil
}

func TestResolvePrefersKB(t *testing.T) {
	ctx := context.Background()

	withHit := NewCalculator(stubKB{mets: 9.5, ok: true})
	assert.Equal(t, 9.5, withHit.Resolve(ctx, "running"))

	withMiss := NewCalculator(stubKB{ok: false})
	assert.Equal(t, 8.0, withMiss.Resolve(ctx, "running"))
}

func TestEnrichItems(t *testing.T) {
	calc := NewCalculator(nil)
	items := []model.TripItem{
		{PlaceType: "running", Duration: 30},
		{PlaceType: "walking", Duration: 60},
		{PlaceType: "gym", Duration: 0},
	}

	calc.EnrichItems(context.Background(), items, 70)

	require.InDelta(t, 280, items[0].Cost, 0.5)
	assert.Equal(t, 8.0, items[0].METsValue)
	assert.NotEmpty(t, items[0].CalcBasis)

	require.InDelta(t, 245, items[1].Cost, 0.5)
	assert.Zero(t, items[2].Cost)
}
