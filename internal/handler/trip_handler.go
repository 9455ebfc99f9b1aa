package handler

import (
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// TripHandler handles exercise plan generation and queries
type TripHandler struct {
	*BaseHandler
	tripService service.TripService
}

// NewTripHandler creates a new TripHandler instance
func NewTripHandler(tripService service.TripService) *TripHandler {
	return &TripHandler{
		BaseHandler: NewBaseHandler(),
		tripService: tripService,
	}
}

// Generate handles POST /api/trip/generate
// @Summary Generate an exercise plan
// @Description Runs the two-stage intent/plan pipeline and persists the plan
// with its items in one transaction. Falls back to a default plan when the
// model is unavailable.
// @Tags Trip
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GeneratePlanRequest true "Natural-language query plus optional context"
// @Success 201 {object} response.BaseResponse "Generated plan"
// @Failure 400 {object} response.BaseResponse "Invalid input"
// @Router /api/trip/generate [post]
func (h *TripHandler) Generate(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req service.GeneratePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := h.tripService.GeneratePlan(c.Request.Context(), userID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	// read back with items in day/sort order
	full, err := h.tripService.GetPlan(c.Request.Context(), userID, plan.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, full)
}

// List handles GET /api/trip/list
// @Summary List all plans
// @Tags Trip
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Plans, newest first"
// @Router /api/trip/list [get]
func (h *TripHandler) List(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	plans, err := h.tripService.ListPlans(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"plans": plans, "total": len(plans)})
}

// Recent handles GET /api/trip/recent
// @Summary Recent plans
// @Tags Trip
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max results"
// @Success 200 {object} response.BaseResponse "Recent plans"
// @Router /api/trip/recent [get]
func (h *TripHandler) Recent(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	_, limit, _ := h.GetPagination(c)

	plans, err := h.tripService.RecentPlans(c.Request.Context(), userID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"plans": plans})
}

// Home handles GET /api/trip/home
// @Summary Today's plan items
// @Tags Trip
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Items scheduled for today"
// @Router /api/trip/home [get]
func (h *TripHandler) Home(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	items, err := h.tripService.TodayItems(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"items": items, "date": time.Now().Format("2006-01-02")})
}

// Get handles GET /api/trip/:id
// @Summary Read a plan with items
// @Tags Trip
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} response.BaseResponse "Plan with ordered items"
// @Failure 404 {object} response.BaseResponse "Plan not found"
// @Router /api/trip/{id} [get]
func (h *TripHandler) Get(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.tripService.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, plan)
}

// Delete handles DELETE /api/trip/:id
// @Summary Delete a plan
// @Description Removes the plan together with its items.
// @Tags Trip
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} response.BaseResponse "Deleted"
// @Failure 403 {object} response.BaseResponse "Not the owner"
// @Router /api/trip/{id} [delete]
func (h *TripHandler) Delete(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	planID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.tripService.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		h.Error(c, err)
		return
	}

	h.SuccessWithMessage(c, "删除成功", nil)
}
