package handler

import (
	"strconv"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// StatsHandler handles statistics and progress queries
type StatsHandler struct {
	*BaseHandler
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(),
		statsService: statsService,
	}
}

// DailyCalories handles GET /api/stats/calories/daily
// @Summary Daily calorie balance
// @Description Intake, burn (actual over planned) and net for one day.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.BaseResponse "Daily calorie stats"
// @Router /api/stats/calories/daily [get]
func (h *StatsHandler) DailyCalories(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	date, ok := h.ParseDateQuery(c, "date")
	if !ok {
		return
	}

	stats, err := h.statsService.DailyCalories(c.Request.Context(), userID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}

// WeeklyCalories handles GET /api/stats/calories/weekly
// @Summary Weekly calorie breakdown
// @Description Seven daily entries plus averages over active days.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param week_start query string false "Week start (YYYY-MM-DD), defaults to this week's Monday"
// @Success 200 {object} response.BaseResponse "Weekly calorie stats"
// @Router /api/stats/calories/weekly [get]
func (h *StatsHandler) WeeklyCalories(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	weekStart := mondayOf(time.Now())
	if raw := c.Query("week_start"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			h.BadRequest(c, "week_start 日期格式无效")
			return
		}
		weekStart = parsed
	}

	stats, err := h.statsService.WeeklyCalories(c.Request.Context(), userID, weekStart)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}

// DailyNutrients handles GET /api/stats/nutrients/daily
// @Summary Daily macro nutrient ratios
// @Description Energy-share ratios compared against dietary guidelines.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.BaseResponse "Daily nutrient stats"
// @Router /api/stats/nutrients/daily [get]
func (h *StatsHandler) DailyNutrients(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	date, ok := h.ParseDateQuery(c, "date")
	if !ok {
		return
	}

	stats, err := h.statsService.DailyNutrients(c.Request.Context(), userID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}

// GoalProgress handles GET /api/stats/goal-progress
// @Summary Goal progress score
// @Description Per-dimension scores for the user's health goal over a window.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days, defaults to 7"
// @Success 200 {object} response.BaseResponse "Goal progress"
// @Router /api/stats/goal-progress [get]
func (h *StatsHandler) GoalProgress(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			h.BadRequest(c, "days 参数无效")
			return
		}
		days = parsed
	}

	stats, err := h.statsService.GoalProgress(c.Request.Context(), userID, days)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}

// ExerciseFrequency handles GET /api/stats/exercise-frequency
// @Summary Exercise frequency
// @Description Daily counts, type distribution and a consistency rating over
// a week or month window.
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param period query string false "week or month, defaults to week"
// @Success 200 {object} response.BaseResponse "Exercise frequency stats"
// @Router /api/stats/exercise-frequency [get]
func (h *StatsHandler) ExerciseFrequency(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	period := c.Query("period")
	if period != "" && period != "week" && period != "month" {
		h.BadRequest(c, "period 仅支持 week 或 month")
		return
	}

	stats, err := h.statsService.ExerciseFrequency(c.Request.Context(), userID, period)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}

// mondayOf returns the Monday of t's ISO week at midnight local time.
func mondayOf(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
}
