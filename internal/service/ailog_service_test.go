package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCallLog(t *testing.T, db *gorm.DB, userID int64, callType string, success bool, age time.Duration) {
	t.Helper()
	entry := &model.AICallLog{
		UserID:        &userID,
		CallType:      callType,
		Model:         "qwen-plus",
		InputSummary:  "prompt",
		OutputSummary: "reply",
		Success:       success,
		LatencyMS:     120,
		CreatedAt:     time.Now().Add(-age),
	}
	if !success {
		msg := "上游超时"
		entry.ErrorMessage = &msg
	}
	require.NoError(t, db.Create(entry).Error)
}

func TestAILogListPagination(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedUser(t, db, nil)
	svc := NewAILogService(repository.NewAICallLogRepository(db))

	for i := 0; i < 5; i++ {
		seedCallLog(t, db, user.ID, model.CallFoodAnalysis, true, time.Duration(i)*time.Minute)
	}
	seedCallLog(t, db, user.ID, model.CallTripGeneration, false, time.Hour)

	page, err := svc.List(context.Background(), user.ID, "", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Total)
	assert.Len(t, page.Logs, 3)
	assert.Equal(t, 3, page.Limit)

	// Filter by type.
	page, err = svc.List(context.Background(), user.ID, model.CallTripGeneration, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Logs, 1)
	assert.False(t, page.Logs[0].Success)
	require.NotNil(t, page.Logs[0].ErrorMessage)
	assert.Equal(t, 20, page.Limit, "zero limit falls back to the default page size")

	_, err = svc.List(context.Background(), user.ID, "mind_reading", 10, 0)
	requireAppErrorCode(t, err, apperrors.ErrInvalidParam)
}

func TestAILogStats(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedUser(t, db, nil)
	svc := NewAILogService(repository.NewAICallLogRepository(db))

	for i := 0; i < 3; i++ {
		seedCallLog(t, db, user.ID, model.CallFoodAnalysis, true, time.Minute)
	}
	seedCallLog(t, db, user.ID, model.CallAllergenCheck, false, time.Minute)

	stats, err := svc.Stats(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCalls)
	assert.Equal(t, int64(3), stats.SuccessCalls)
	assert.Equal(t, int64(1), stats.FailureCalls)
	assert.InDelta(t, 0.75, stats.SuccessRate, 0.001)
	assert.Equal(t, int64(3), stats.CallTypeDistribution[model.CallFoodAnalysis])
	assert.Equal(t, int64(4), stats.Recent7DaysCount)
}
