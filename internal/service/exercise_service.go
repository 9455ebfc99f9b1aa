package service

import (
	"context"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/mets"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

// CreateExerciseRecordRequest carries a new performed-exercise record
type CreateExerciseRecordRequest struct {
	PlanID          *int64   `json:"plan_id"`
	ExerciseType    string   `json:"exercise_type" validate:"required,exercise_type"`
	ActualCalories  float64  `json:"actual_calories" validate:"min=0"`
	ActualDuration  int      `json:"actual_duration" validate:"required,min=1"`
	Distance        *float64 `json:"distance" validate:"omitempty,min=0"`
	RouteData       *string  `json:"route_data"`
	ExerciseDate    string   `json:"exercise_date" validate:"required,record_date"`
	StartedAt       *string  `json:"started_at"`
	EndedAt         *string  `json:"ended_at"`
	Notes           string   `json:"notes" validate:"omitempty,max=1000"`
	PlannedCalories *float64 `json:"planned_calories" validate:"omitempty,min=0"`
	PlannedDuration *int     `json:"planned_duration" validate:"omitempty,min=0"`
}

// ExerciseService manages performed-exercise records
type ExerciseService interface {
	Create(ctx context.Context, userID int64, req *CreateExerciseRecordRequest) (*model.ExerciseRecord, error)
	Get(ctx context.Context, userID, recordID int64) (*model.ExerciseRecord, error)
	List(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.ExerciseRecord, error)
	Delete(ctx context.Context, userID, recordID int64) error
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRecordRepository
	tripRepo     repository.TripPlanRepository
	userRepo     repository.UserRepository
	calc         *mets.Calculator
}

// NewExerciseService creates a new instance of ExerciseService
func NewExerciseService(
	exerciseRepo repository.ExerciseRecordRepository,
	tripRepo repository.TripPlanRepository,
	userRepo repository.UserRepository,
	calc *mets.Calculator,
) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		tripRepo:     tripRepo,
		userRepo:     userRepo,
		calc:         calc,
	}
}

// Create validates the record, checks plan ownership, and fills in
// calories from the METs table when the caller didn't measure them.
func (s *exerciseService) Create(ctx context.Context, userID int64, req *CreateExerciseRecordRequest) (*model.ExerciseRecord, error) {
	if !model.IsCanonicalExerciseType(req.ExerciseType) {
		return nil, apperrors.ErrInvalidExercise
	}

	exerciseDate, err := time.ParseInLocation("2006-01-02", req.ExerciseDate, time.Local)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "日期格式应为YYYY-MM-DD")
	}

	startedAt, err := parseOptionalTime(req.StartedAt)
	if err != nil {
		return nil, err
	}
	endedAt, err := parseOptionalTime(req.EndedAt)
	if err != nil {
		return nil, err
	}
	if startedAt != nil && endedAt != nil && !endedAt.After(*startedAt) {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "结束时间必须晚于开始时间")
	}

	record := &model.ExerciseRecord{
		UserID:          userID,
		ExerciseType:    req.ExerciseType,
		ActualCalories:  req.ActualCalories,
		ActualDuration:  req.ActualDuration,
		Distance:        req.Distance,
		RouteData:       req.RouteData,
		ExerciseDate:    exerciseDate,
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		Notes:           req.Notes,
		PlannedCalories: req.PlannedCalories,
		PlannedDuration: req.PlannedDuration,
	}

	if req.PlanID != nil {
		plan, err := s.tripRepo.GetByID(ctx, *req.PlanID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询计划失败")
		}
		if plan == nil {
			return nil, apperrors.ErrResourceNotFound
		}
		if plan.UserID != userID {
			return nil, apperrors.ErrPermissionDenied
		}
		record.PlanID = req.PlanID
		s.copyPlannedValues(record, plan)
	}

	if record.ActualCalories <= 0 && s.calc != nil {
		weight := mets.DefaultWeightKG
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil && user != nil && user.WeightKG > 0 {
			weight = user.WeightKG
		}
		record.ActualCalories = s.calc.Calories(ctx, record.ExerciseType, weight, record.ActualDuration)
	}

	if err := s.exerciseRepo.Create(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "创建运动记录失败")
	}
	return record, nil
}

// copyPlannedValues fills planned calories/duration from the linked plan's
// items of the same type, unless the caller supplied them.
func (s *exerciseService) copyPlannedValues(record *model.ExerciseRecord, plan *model.TripPlan) {
	if record.PlannedCalories != nil && record.PlannedDuration != nil {
		return
	}
	var calories float64
	var duration int
	for _, item := range plan.Items {
		if item.PlaceType != record.ExerciseType {
			continue
		}
		calories += item.Cost
		duration += item.Duration
	}
	if calories <= 0 && duration <= 0 {
		return
	}
	if record.PlannedCalories == nil {
		record.PlannedCalories = &calories
	}
	if record.PlannedDuration == nil {
		record.PlannedDuration = &duration
	}
}

func (s *exerciseService) Get(ctx context.Context, userID, recordID int64) (*model.ExerciseRecord, error) {
	return s.getOwned(ctx, userID, recordID)
}

func (s *exerciseService) List(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.ExerciseRecord, error) {
	records, err := s.exerciseRepo.ListByUser(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询运动记录失败")
	}
	return records, nil
}

func (s *exerciseService) Delete(ctx context.Context, userID, recordID int64) error {
	if _, err := s.getOwned(ctx, userID, recordID); err != nil {
		return err
	}
	if err := s.exerciseRepo.Delete(ctx, recordID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabase, "删除运动记录失败")
	}
	return nil
}

func (s *exerciseService) getOwned(ctx context.Context, userID, recordID int64) (*model.ExerciseRecord, error) {
	record, err := s.exerciseRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询运动记录失败")
	}
	if record == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	if record.UserID != userID {
		return nil, apperrors.ErrPermissionDenied
	}
	return record, nil
}

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, *value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrInvalidParam, "时间格式不正确")
}
