package service

import (
	"context"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

// recordDateHorizon bounds how far in the future a diet record may be dated.
const recordDateHorizon = 24 * time.Hour

// CreateDietRecordRequest carries a new diet record
type CreateDietRecordRequest struct {
	FoodName   string  `json:"food_name" validate:"required,min=1,max=200"`
	Calories   float64 `json:"calories" validate:"min=0"`
	Protein    float64 `json:"protein" validate:"min=0"`
	Fat        float64 `json:"fat" validate:"min=0"`
	Carbs      float64 `json:"carbs" validate:"min=0"`
	MealType   string  `json:"meal_type" validate:"required,meal_slot"`
	RecordDate string  `json:"record_date" validate:"required,record_date"`
}

// UpdateDietRecordRequest carries a partial diet record update
type UpdateDietRecordRequest struct {
	FoodName *string  `json:"food_name" validate:"omitempty,min=1,max=200"`
	Calories *float64 `json:"calories" validate:"omitempty,min=0"`
	Protein  *float64 `json:"protein" validate:"omitempty,min=0"`
	Fat      *float64 `json:"fat" validate:"omitempty,min=0"`
	Carbs    *float64 `json:"carbs" validate:"omitempty,min=0"`
	MealType *string  `json:"meal_type" validate:"omitempty,meal_slot"`
}

// DietService manages diet record CRUD with ownership checks
type DietService interface {
	Create(ctx context.Context, userID int64, req *CreateDietRecordRequest) (*model.DietRecord, error)
	List(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.DietRecord, error)
	ListToday(ctx context.Context, userID int64) ([]*model.DietRecord, error)
	Update(ctx context.Context, userID, recordID int64, req *UpdateDietRecordRequest) (*model.DietRecord, error)
	Delete(ctx context.Context, userID, recordID int64) error
}

type dietService struct {
	dietRepo repository.DietRecordRepository
}

// NewDietService creates a new instance of DietService
func NewDietService(dietRepo repository.DietRecordRepository) DietService {
	return &dietService{dietRepo: dietRepo}
}

func (s *dietService) Create(ctx context.Context, userID int64, req *CreateDietRecordRequest) (*model.DietRecord, error) {
	recordDate, err := time.ParseInLocation("2006-01-02", req.RecordDate, time.Local)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "日期格式应为YYYY-MM-DD")
	}
	if recordDate.After(time.Now().Add(recordDateHorizon)) {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "记录日期不能超过明天")
	}

	record := &model.DietRecord{
		UserID:     userID,
		FoodName:   req.FoodName,
		Calories:   req.Calories,
		Protein:    req.Protein,
		Fat:        req.Fat,
		Carbs:      req.Carbs,
		MealType:   model.NormalizeMealSlot(req.MealType),
		RecordDate: recordDate,
	}
	if err := s.dietRepo.Create(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "创建饮食记录失败")
	}
	return record, nil
}

func (s *dietService) List(ctx context.Context, userID int64, startDate, endDate *time.Time) ([]*model.DietRecord, error) {
	records, err := s.dietRepo.ListByUser(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询饮食记录失败")
	}
	return records, nil
}

func (s *dietService) ListToday(ctx context.Context, userID int64) ([]*model.DietRecord, error) {
	records, err := s.dietRepo.ListByDate(ctx, userID, time.Now())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询今日饮食记录失败")
	}
	return records, nil
}

func (s *dietService) Update(ctx context.Context, userID, recordID int64, req *UpdateDietRecordRequest) (*model.DietRecord, error) {
	record, err := s.getOwned(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	if req.FoodName != nil {
		record.FoodName = *req.FoodName
	}
	if req.Calories != nil {
		record.Calories = *req.Calories
	}
	if req.Protein != nil {
		record.Protein = *req.Protein
	}
	if req.Fat != nil {
		record.Fat = *req.Fat
	}
	if req.Carbs != nil {
		record.Carbs = *req.Carbs
	}
	if req.MealType != nil {
		record.MealType = model.NormalizeMealSlot(*req.MealType)
	}
	record.UpdatedAt = time.Now()

	if err := s.dietRepo.Update(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "更新饮食记录失败")
	}
	return record, nil
}

func (s *dietService) Delete(ctx context.Context, userID, recordID int64) error {
	if _, err := s.getOwned(ctx, userID, recordID); err != nil {
		return err
	}
	if err := s.dietRepo.Delete(ctx, recordID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabase, "删除饮食记录失败")
	}
	return nil
}

func (s *dietService) getOwned(ctx context.Context, userID, recordID int64) (*model.DietRecord, error) {
	record, err := s.dietRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询饮食记录失败")
	}
	if record == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	if record.UserID != userID {
		return nil, apperrors.ErrPermissionDenied
	}
	return record, nil
}
