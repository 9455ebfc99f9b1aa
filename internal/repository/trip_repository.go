package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// TripPlanRepository defines the interface for trip plan operations
type TripPlanRepository interface {
	// CreateWithItems persists the plan and all items in one transaction.
	CreateWithItems(ctx context.Context, plan *model.TripPlan, items []model.TripItem) error
	GetByID(ctx context.Context, id int64) (*model.TripPlan, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.TripPlan, error)
	Recent(ctx context.Context, userID int64, limit int) ([]*model.TripPlan, error)
	// ItemsCoveringDate returns items of all user plans whose date span
	// includes the given date.
	ItemsCoveringDate(ctx context.Context, userID int64, date time.Time) ([]model.TripItem, error)
	Delete(ctx context.Context, id int64) error
}

type tripPlanRepository struct {
	db *gorm.DB
}

// NewTripPlanRepository creates a new instance of TripPlanRepository
func NewTripPlanRepository(db *gorm.DB) TripPlanRepository {
	return &tripPlanRepository{db: db}
}

func (r *tripPlanRepository) CreateWithItems(ctx context.Context, plan *model.TripPlan, items []model.TripItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PlanID = plan.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		plan.Items = items
		return nil
	})
}

func (r *tripPlanRepository) GetByID(ctx context.Context, id int64) (*model.TripPlan, error) {
	var plan model.TripPlan
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_index ASC, sort_order ASC")
		}).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *tripPlanRepository) ListByUser(ctx context.Context, userID int64) ([]*model.TripPlan, error) {
	var plans []*model.TripPlan
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *tripPlanRepository) Recent(ctx context.Context, userID int64, limit int) ([]*model.TripPlan, error) {
	if limit <= 0 {
		limit = 5
	}
	var plans []*model.TripPlan
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *tripPlanRepository) ItemsCoveringDate(ctx context.Context, userID int64, date time.Time) ([]model.TripItem, error) {
	dateStr := date.Format("2006-01-02")
	var items []model.TripItem
	if err := r.db.WithContext(ctx).
		Joins("JOIN trip_plans ON trip_plans.id = trip_items.plan_id").
		Where("trip_plans.user_id = ? AND trip_plans.start_date <= ? AND trip_plans.end_date >= ?",
			userID, dateStr, dateStr).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes the plan with its items and nulls out weak references from
// exercise records.
func (r *tripPlanRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ExerciseRecord{}).
			Where("plan_id = ?", id).
			Update("plan_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", id).Delete(&model.TripItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TripPlan{}, id).Error
	})
}
