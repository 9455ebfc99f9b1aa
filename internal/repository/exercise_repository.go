package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// ExerciseRecordRepository defines the interface for exercise record operations
type ExerciseRecordRepository interface {
	Create(ctx context.Context, record *model.ExerciseRecord) error
	GetByID(ctx context.Context, id int64) (*model.ExerciseRecord, error)
	ListByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.ExerciseRecord, error)
	ListByDate(ctx context.Context, userID int64, date time.Time) ([]*model.ExerciseRecord, error)
	Delete(ctx context.Context, id int64) error
}

type exerciseRecordRepository struct {
	db *gorm.DB
}

// NewExerciseRecordRepository creates a new instance of ExerciseRecordRepository
func NewExerciseRecordRepository(db *gorm.DB) ExerciseRecordRepository {
	return &exerciseRecordRepository{db: db}
}

func (r *exerciseRecordRepository) Create(ctx context.Context, record *model.ExerciseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *exerciseRecordRepository) GetByID(ctx context.Context, id int64) (*model.ExerciseRecord, error) {
	var record model.ExerciseRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *exerciseRecordRepository) ListByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.ExerciseRecord, error) {
	var records []*model.ExerciseRecord
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if startDate != nil {
		query = query.Where("exercise_date >= ?", startDate.Format("2006-01-02"))
	}
	if endDate != nil {
		query = query.Where("exercise_date <= ?", endDate.Format("2006-01-02"))
	}

	if err := query.Order("exercise_date DESC, created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *exerciseRecordRepository) ListByDate(ctx context.Context, userID int64, date time.Time) ([]*model.ExerciseRecord, error) {
	var records []*model.ExerciseRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND exercise_date = ?", userID, date.Format("2006-01-02")).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *exerciseRecordRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ExerciseRecord{}, id).Error
}
