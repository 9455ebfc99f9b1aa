package mets

import (
	"context"
	"math"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
)

// EnrichItems recomputes every plan item's calorie cost from its exercise
// type and duration, recording the METs value and calculation trail.
func (c *Calculator) EnrichItems(ctx context.Context, items []model.TripItem, weightKG float64) {
	if weightKG <= 0 {
		weightKG = DefaultWeightKG
	}
	for i := range items {
		item := &items[i]
		if item.Duration <= 0 {
			item.Cost = 0
			continue
		}
		m := c.Resolve(ctx, item.PlaceType)
		kcal := math.Round(m * weightKG * float64(item.Duration) / 60)
		item.Cost = kcal
		item.METsValue = m
		item.CalcBasis = Basis(item.PlaceType, m, weightKG, item.Duration, kcal)
	}
}
