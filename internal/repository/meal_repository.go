package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// MealComparisonRepository defines the interface for meal comparison operations
type MealComparisonRepository interface {
	Create(ctx context.Context, comparison *model.MealComparison) error
	GetByID(ctx context.Context, id int64) (*model.MealComparison, error)
	GetByUserAndID(ctx context.Context, userID, id int64) (*model.MealComparison, error)
	Update(ctx context.Context, comparison *model.MealComparison) error
	ListByUser(ctx context.Context, userID int64, status string, limit int) ([]*model.MealComparison, error)
	ListCompletedInRange(ctx context.Context, userID int64, start, end time.Time) ([]*model.MealComparison, error)
}

type mealComparisonRepository struct {
	db *gorm.DB
}

// NewMealComparisonRepository creates a new instance of MealComparisonRepository
func NewMealComparisonRepository(db *gorm.DB) MealComparisonRepository {
	return &mealComparisonRepository{db: db}
}

func (r *mealComparisonRepository) Create(ctx context.Context, comparison *model.MealComparison) error {
	return r.db.WithContext(ctx).Create(comparison).Error
}

func (r *mealComparisonRepository) GetByID(ctx context.Context, id int64) (*model.MealComparison, error) {
	var comparison model.MealComparison
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comparison).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comparison, nil
}

func (r *mealComparisonRepository) GetByUserAndID(ctx context.Context, userID, id int64) (*model.MealComparison, error) {
	var comparison model.MealComparison
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&comparison).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comparison, nil
}

func (r *mealComparisonRepository) Update(ctx context.Context, comparison *model.MealComparison) error {
	return r.db.WithContext(ctx).Save(comparison).Error
}

func (r *mealComparisonRepository) ListByUser(ctx context.Context, userID int64, status string, limit int) ([]*model.MealComparison, error) {
	var comparisons []*model.MealComparison
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit <= 0 {
		limit = 20
	}
	if err := query.Order("created_at DESC").Limit(limit).Find(&comparisons).Error; err != nil {
		return nil, err
	}
	return comparisons, nil
}

func (r *mealComparisonRepository) ListCompletedInRange(ctx context.Context, userID int64, start, end time.Time) ([]*model.MealComparison, error) {
	var comparisons []*model.MealComparison
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			userID, model.ComparisonCompleted, start, end).
		Order("created_at ASC").
		Find(&comparisons).Error; err != nil {
		return nil, err
	}
	return comparisons, nil
}
