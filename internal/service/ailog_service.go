package service

import (
	"context"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

// AICallLogPage is one page of call logs plus the total row count.
type AICallLogPage struct {
	Logs   []*model.AICallLog `json:"logs"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// AILogService exposes the append-only AI call log for inspection
type AILogService interface {
	List(ctx context.Context, userID int64, callType string, limit, offset int) (*AICallLogPage, error)
	Stats(ctx context.Context, userID int64) (*repository.AICallStats, error)
}

type aiLogService struct {
	logRepo repository.AICallLogRepository
}

// NewAILogService creates a new instance of AILogService
func NewAILogService(logRepo repository.AICallLogRepository) AILogService {
	return &aiLogService{logRepo: logRepo}
}

func (s *aiLogService) List(ctx context.Context, userID int64, callType string, limit, offset int) (*AICallLogPage, error) {
	if callType != "" && !model.IsValidCallType(callType) {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "不支持的调用类型")
	}
	logs, total, err := s.logRepo.ListByUser(ctx, userID, callType, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询AI调用日志失败")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return &AICallLogPage{Logs: logs, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *aiLogService) Stats(ctx context.Context, userID int64) (*repository.AICallStats, error) {
	stats, err := s.logRepo.Stats(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "统计AI调用日志失败")
	}
	return stats, nil
}
