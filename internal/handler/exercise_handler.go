package handler

import (
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ExerciseHandler handles performed-exercise record requests
type ExerciseHandler struct {
	*BaseHandler
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler instance
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(),
		exerciseService: exerciseService,
	}
}

// Create handles POST /api/exercise/record
// @Summary Record a performed exercise
// @Description Fills missing calories from the METs table and copies planned
// values when a plan is referenced.
// @Tags Exercise
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateExerciseRecordRequest true "Exercise record"
// @Success 201 {object} response.BaseResponse "Created record"
// @Failure 400 {object} response.BaseResponse "Invalid type or time range"
// @Failure 403 {object} response.BaseResponse "Plan owned by another user"
// @Router /api/exercise/record [post]
func (h *ExerciseHandler) Create(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req service.CreateExerciseRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	record, err := h.exerciseService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, record)
}

// List handles GET /api/exercise/records
// @Summary List exercise records
// @Description Optional start_date/end_date (YYYY-MM-DD) narrow the range.
// @Tags Exercise
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Records, newest first"
// @Router /api/exercise/records [get]
func (h *ExerciseHandler) List(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	start, end, ok := h.ParseDateRangeQuery(c)
	if !ok {
		return
	}

	records, err := h.exerciseService.List(c.Request.Context(), userID, start, end)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"records": records, "total": len(records)})
}

// Get handles GET /api/exercise/records/:id
// @Summary Read an exercise record
// @Tags Exercise
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.BaseResponse "Record"
// @Failure 404 {object} response.BaseResponse "Record not found"
// @Router /api/exercise/records/{id} [get]
func (h *ExerciseHandler) Get(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.exerciseService.Get(c.Request.Context(), userID, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, record)
}

// Delete handles DELETE /api/exercise/record/:id
// @Summary Delete an exercise record
// @Tags Exercise
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.BaseResponse "Deleted"
// @Failure 403 {object} response.BaseResponse "Not the owner"
// @Router /api/exercise/record/{id} [delete]
func (h *ExerciseHandler) Delete(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.exerciseService.Delete(c.Request.Context(), userID, recordID); err != nil {
		h.Error(c, err)
		return
	}

	h.SuccessWithMessage(c, "删除成功", nil)
}
