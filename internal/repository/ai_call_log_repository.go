package repository

import (
	"context"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"gorm.io/gorm"
)

// AICallStats aggregates call log metrics for the diagnostics endpoint
type AICallStats struct {
	TotalCalls           int64            `json:"total_calls"`
	SuccessCalls         int64            `json:"success_calls"`
	FailureCalls         int64            `json:"failure_calls"`
	SuccessRate          float64          `json:"success_rate"`
	AvgLatencyMS         float64          `json:"avg_latency_ms"`
	CallTypeDistribution map[string]int64 `json:"call_type_distribution"`
	ModelDistribution    map[string]int64 `json:"model_distribution"`
	Recent7DaysCount     int64            `json:"recent_7days_count"`
}

// AICallLogRepository defines the interface for AI call log operations
type AICallLogRepository interface {
	Create(ctx context.Context, log *model.AICallLog) error
	ListByUser(ctx context.Context, userID int64, callType string, limit, offset int) ([]*model.AICallLog, int64, error)
	Stats(ctx context.Context, userID int64) (*AICallStats, error)
}

type aiCallLogRepository struct {
	db *gorm.DB
}

// NewAICallLogRepository creates a new instance of AICallLogRepository
func NewAICallLogRepository(db *gorm.DB) AICallLogRepository {
	return &aiCallLogRepository{db: db}
}

func (r *aiCallLogRepository) Create(ctx context.Context, log *model.AICallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *aiCallLogRepository) ListByUser(ctx context.Context, userID int64, callType string, limit, offset int) ([]*model.AICallLog, int64, error) {
	var logs []*model.AICallLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.AICallLog{}).Where("user_id = ?", userID)
	if callType != "" {
		query = query.Where("call_type = ?", callType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

type typeCount struct {
	Key   string
	Count int64
}

func (r *aiCallLogRepository) Stats(ctx context.Context, userID int64) (*AICallStats, error) {
	stats := &AICallStats{
		CallTypeDistribution: make(map[string]int64),
		ModelDistribution:    make(map[string]int64),
	}

	base := r.db.WithContext(ctx).Model(&model.AICallLog{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalCalls).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("success = ?", true).Count(&stats.SuccessCalls).Error; err != nil {
		return nil, err
	}
	stats.FailureCalls = stats.TotalCalls - stats.SuccessCalls
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCalls) / float64(stats.TotalCalls)
	}

	var avgLatency *float64
	if err := base.Session(&gorm.Session{}).
		Select("AVG(latency_ms)").Scan(&avgLatency).Error; err != nil {
		return nil, err
	}
	if avgLatency != nil {
		stats.AvgLatencyMS = *avgLatency
	}

	var byType []typeCount
	if err := base.Session(&gorm.Session{}).
		Select("call_type AS `key`, COUNT(*) AS count").
		Group("call_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, tc := range byType {
		stats.CallTypeDistribution[tc.Key] = tc.Count
	}

	var byModel []typeCount
	if err := base.Session(&gorm.Session{}).
		Select("model AS `key`, COUNT(*) AS count").
		Group("model").Scan(&byModel).Error; err != nil {
		return nil, err
	}
	for _, tc := range byModel {
		stats.ModelDistribution[tc.Key] = tc.Count
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := base.Session(&gorm.Session{}).
		Where("created_at >= ?", weekAgo).Count(&stats.Recent7DaysCount).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
