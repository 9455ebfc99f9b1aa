package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/database"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/redis"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles GET /health
// @Summary Health check
// @Description Check the health status of the API and its dependencies
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{
		"database": databaseStatus(),
		"redis":    redisStatus(c.Request.Context()),
	}

	status := "healthy"
	httpStatus := http.StatusOK
	for _, s := range services {
		if s != "healthy" {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Services:  services,
	})
}

func databaseStatus() string {
	gormDB := database.GetDB()
	if gormDB == nil {
		return "not_initialized"
	}
	sqlDB, err := gormDB.DB()
	if err != nil || sqlDB.Ping() != nil {
		return "unhealthy"
	}
	return "healthy"
}

func redisStatus(ctx context.Context) string {
	if redis.Rdb == nil {
		return "not_initialized"
	}
	if err := redis.Rdb.Ping(ctx).Err(); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
