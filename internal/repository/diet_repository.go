package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// DietSummary aggregates macro totals for one day.
type DietSummary struct {
	TotalCalories float64
	TotalProtein  float64
	TotalFat      float64
	TotalCarbs    float64
	MealCount     int64
}

// FoodCount is a per-dish frequency over a history window.
type FoodCount struct {
	FoodName string
	Count    int64
}

// DietRecordRepository defines the interface for diet record operations
type DietRecordRepository interface {
	Create(ctx context.Context, record *model.DietRecord) error
	GetByID(ctx context.Context, id int64) (*model.DietRecord, error)
	Update(ctx context.Context, record *model.DietRecord) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.DietRecord, error)
	ListByDate(ctx context.Context, userID int64, date time.Time) ([]*model.DietRecord, error)
	GetDailySummary(ctx context.Context, userID int64, date time.Time) (*DietSummary, error)
	// GetFoodFrequency counts records per dish name between the two dates.
	GetFoodFrequency(ctx context.Context, userID int64, since time.Time) ([]FoodCount, error)
}

type dietRecordRepository struct {
	db *gorm.DB
}

// NewDietRecordRepository creates a new instance of DietRecordRepository
func NewDietRecordRepository(db *gorm.DB) DietRecordRepository {
	return &dietRecordRepository{db: db}
}

func (r *dietRecordRepository) Create(ctx context.Context, record *model.DietRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *dietRecordRepository) GetByID(ctx context.Context, id int64) (*model.DietRecord, error) {
	var record model.DietRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *dietRecordRepository) Update(ctx context.Context, record *model.DietRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *dietRecordRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.DietRecord{}, id).Error
}

func (r *dietRecordRepository) ListByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.DietRecord, error) {
	var records []*model.DietRecord
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if startDate != nil {
		query = query.Where("record_date >= ?", startDate.Format("2006-01-02"))
	}
	if endDate != nil {
		query = query.Where("record_date <= ?", endDate.Format("2006-01-02"))
	}

	if err := query.Order("record_date DESC, created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *dietRecordRepository) ListByDate(ctx context.Context, userID int64, date time.Time) ([]*model.DietRecord, error) {
	var records []*model.DietRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND record_date = ?", userID, date.Format("2006-01-02")).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *dietRecordRepository) GetDailySummary(ctx context.Context, userID int64, date time.Time) (*DietSummary, error) {
	var summary DietSummary

	if err := r.db.WithContext(ctx).
		Model(&model.DietRecord{}).
		Where("user_id = ? AND record_date = ?", userID, date.Format("2006-01-02")).
		Count(&summary.MealCount).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&model.DietRecord{}).
		Select(`
			COALESCE(SUM(calories), 0) as total_calories,
			COALESCE(SUM(protein), 0) as total_protein,
			COALESCE(SUM(fat), 0) as total_fat,
			COALESCE(SUM(carbs), 0) as total_carbs
		`).
		Where("user_id = ? AND record_date = ?", userID, date.Format("2006-01-02")).
		Scan(&summary).Error; err != nil {
		return nil, err
	}

	return &summary, nil
}

func (r *dietRecordRepository) GetFoodFrequency(ctx context.Context, userID int64, since time.Time) ([]FoodCount, error) {
	var counts []FoodCount
	if err := r.db.WithContext(ctx).
		Model(&model.DietRecord{}).
		Select("food_name, COUNT(*) as count").
		Where("user_id = ? AND record_date >= ?", userID, since.Format("2006-01-02")).
		Group("food_name").
		Order("count DESC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// MenuRecognitionRepository defines the interface for menu recognition rows
type MenuRecognitionRepository interface {
	Create(ctx context.Context, rec *model.MenuRecognition) error
	GetLatestByUser(ctx context.Context, userID int64) (*model.MenuRecognition, error)
}

type menuRecognitionRepository struct {
	db *gorm.DB
}

// NewMenuRecognitionRepository creates a new instance of MenuRecognitionRepository
func NewMenuRecognitionRepository(db *gorm.DB) MenuRecognitionRepository {
	return &menuRecognitionRepository{db: db}
}

func (r *menuRecognitionRepository) Create(ctx context.Context, rec *model.MenuRecognition) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *menuRecognitionRepository) GetLatestByUser(ctx context.Context, userID int64) (*model.MenuRecognition, error) {
	var rec model.MenuRecognition
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
