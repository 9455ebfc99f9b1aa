package service

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"go.uber.org/zap"
)

// UpdatePreferencesRequest carries the partial preferences update. Nil
// fields are left untouched.
type UpdatePreferencesRequest struct {
	HealthGoal  *string   `json:"health_goal" validate:"omitempty,oneof=reduce_fat gain_muscle control_sugar balanced unset"`
	Allergens   *[]string `json:"allergens"`
	WeightKG    *float64  `json:"weight_kg" validate:"omitempty,min=0,max=500"`
	HeightCM    *float64  `json:"height_cm" validate:"omitempty,min=0,max=300"`
	Age         *int      `json:"age" validate:"omitempty,min=0,max=150"`
	Gender      *string   `json:"gender" validate:"omitempty,oneof=male female"`
	TravelPref  *string   `json:"travel_preference" validate:"omitempty,max=100"`
	DailyBudget *float64  `json:"daily_budget" validate:"omitempty,min=0"`
}

// UserService interface defines methods for user profile operations
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	GetPreferences(ctx context.Context, userID int64) (*model.User, error)
	UpdatePreferences(ctx context.Context, userID int64, req *UpdatePreferencesRequest) (*model.User, error)
	// ForgetMe hard-deletes the user and every dependent row in one
	// transaction, children first.
	ForgetMe(ctx context.Context, userID int64) (*repository.PurgeResult, error)
}

// userService implements the UserService interface
type userService struct {
	userRepo repository.UserRepository
	sessions session.SessionManager
}

// NewUserService creates a new instance of UserService. sessions may be nil,
// in which case ForgetMe skips session revocation.
func NewUserService(userRepo repository.UserRepository, sessions session.SessionManager) UserService {
	return &userService{userRepo: userRepo, sessions: sessions}
}

// GetProfile retrieves a user's profile information
func (s *userService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询用户失败")
	}
	if user == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	user.PasswordHash = ""
	return user, nil
}

// GetPreferences returns the same descriptor the preferences view edits
func (s *userService) GetPreferences(ctx context.Context, userID int64) (*model.User, error) {
	return s.GetProfile(ctx, userID)
}

// UpdatePreferences applies a partial update to the user's preferences.
// Allergen tokens are stored as given; canonical normalization happens at
// use sites, so free-text entries like "海鲜" survive round trips.
func (s *userService) UpdatePreferences(ctx context.Context, userID int64, req *UpdatePreferencesRequest) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询用户失败")
	}
	if user == nil {
		return nil, apperrors.ErrResourceNotFound
	}

	if req.HealthGoal != nil {
		user.HealthGoal = *req.HealthGoal
	}
	if req.Allergens != nil {
		user.Allergens = model.StringSlice(dedupeTokens(*req.Allergens))
	}
	if req.WeightKG != nil {
		user.WeightKG = *req.WeightKG
	}
	if req.HeightCM != nil {
		user.HeightCM = *req.HeightCM
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.TravelPref != nil {
		user.TravelPref = *req.TravelPref
	}
	if req.DailyBudget != nil {
		user.DailyBudget = *req.DailyBudget
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "更新用户偏好失败")
	}

	user.PasswordHash = ""
	return user, nil
}

// ForgetMe purges the user and all dependent rows. A second call finds no
// user and reports not-found.
func (s *userService) ForgetMe(ctx context.Context, userID int64) (*repository.PurgeResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询用户失败")
	}
	if user == nil {
		return nil, apperrors.ErrResourceNotFound
	}

	result, err := s.userRepo.PurgeUserData(ctx, userID)
	if err != nil {
		logger.Logger.Error("用户数据删除失败",
			zap.Int64("user_id", userID),
			zap.String("failed_table", repository.FailedTable(err)),
			zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "用户数据删除失败")
	}

	// Revoke live sessions so a still-held token stops working immediately.
	if s.sessions != nil {
		if err := s.sessions.DeleteAllUserSessions(ctx, userID); err != nil {
			logger.Logger.Warn("删除用户会话失败",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	}

	logger.Logger.Info("用户数据已删除",
		zap.Int64("user_id", userID),
		zap.Int64("total_deleted", result.TotalDeleted))
	return result, nil
}

// dedupeTokens trims and deduplicates allergen tokens while preserving
// order. Free-text tokens are stored as-is; canonical normalization
// happens where the codes are consumed.
func dedupeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		trimmed := strings.TrimSpace(tok)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
