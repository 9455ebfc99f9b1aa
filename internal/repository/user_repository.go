package repository

import (
	"context"
	"errors"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// PurgeResult reports the per-table row counts removed by a forget-me call.
type PurgeResult struct {
	DeletedCounts map[string]int64 `json:"deleted_counts"`
	TotalDeleted  int64            `json:"total_deleted"`
}

// UserRepository defines the interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// PurgeUserData hard-deletes the user and every dependent row in one
	// transaction, children before parents.
	PurgeUserData(ctx context.Context, userID int64) (*PurgeResult, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Update saves the full user row
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// PurgeUserData deletes dependent rows in topological order, then the user.
// The exercise_record → trip_item → trip_plan order matters: exercise records
// hold a weak plan reference and must go before their plans.
func (r *userRepository) PurgeUserData(ctx context.Context, userID int64) (*PurgeResult, error) {
	result := &PurgeResult{DeletedCounts: make(map[string]int64)}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			table  string
			delete func() *gorm.DB
		}{
			{"exercise_records", func() *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.ExerciseRecord{})
			}},
			{"trip_items", func() *gorm.DB {
				return tx.Where("plan_id IN (?)",
					tx.Model(&model.TripPlan{}).Select("id").Where("user_id = ?", userID),
				).Delete(&model.TripItem{})
			}},
			{"trip_plans", func() *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.TripPlan{})
			}},
			{"diet_records", func() *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.DietRecord{})
			}},
			{"meal_comparisons", func() *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.MealComparison{})
			}},
			{"menu_recognitions", func() *gorm.DB {
				return tx.Where("user_id = ?", userID).Delete(&model.MenuRecognition{})
			}},
			{"user", func() *gorm.DB {
				return tx.Where("id = ?", userID).Delete(&model.User{})
			}},
		}

		for _, step := range steps {
			res := step.delete()
			if res.Error != nil {
				return &purgeStepError{table: step.table, err: res.Error}
			}
			result.DeletedCounts[step.table] = res.RowsAffected
			result.TotalDeleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// purgeStepError identifies which table failed inside the purge transaction.
type purgeStepError struct {
	table string
	err   error
}

func (e *purgeStepError) Error() string {
	return "purge failed at table " + e.table + ": " + e.err.Error()
}

func (e *purgeStepError) Unwrap() error {
	return e.err
}

// FailedTable extracts the failing table name from a purge error, if any.
func FailedTable(err error) string {
	var pe *purgeStepError
	if errors.As(err, &pe) {
		return pe.table
	}
	return ""
}
