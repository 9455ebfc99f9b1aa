package handler

import (
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// MealHandler handles before/after meal photo comparison requests
type MealHandler struct {
	*BaseHandler
	mealService service.MealService
}

// NewMealHandler creates a new MealHandler instance
func NewMealHandler(mealService service.MealService) *MealHandler {
	return &MealHandler{
		BaseHandler: NewBaseHandler(),
		mealService: mealService,
	}
}

// UploadBefore handles POST /api/food/meal/before
// @Summary Upload a before-meal photo
// @Description Starts a comparison. The response carries the comparison id
// used by the after-meal upload.
// @Tags Meal
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Before-meal photo"
// @Success 201 {object} response.BaseResponse "Comparison in pending_after state"
// @Failure 400 {object} response.BaseResponse "Invalid upload"
// @Router /api/food/meal/before [post]
func (h *MealHandler) UploadBefore(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	image, ext, err := readImageUpload(c, "image")
	if err != nil {
		h.Error(c, err)
		return
	}

	imageURL, err := saveImageUpload("meal", image, ext)
	if err != nil {
		h.Error(c, err)
		return
	}

	comparison, err := h.mealService.UploadBefore(c.Request.Context(), userID, imageURL, image)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, comparison)
}

// UploadAfter handles POST /api/food/meal/after/:comparison_id
// @Summary Upload an after-meal photo
// @Description Completes a comparison and computes the consumption diff.
// @Tags Meal
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param comparison_id path int true "Comparison ID"
// @Param image formData file true "After-meal photo"
// @Success 200 {object} response.BaseResponse "Completed comparison"
// @Failure 409 {object} response.BaseResponse "Comparison not pending"
// @Router /api/food/meal/after/{comparison_id} [post]
func (h *MealHandler) UploadAfter(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	comparisonID, ok := h.ParseIDParam(c, "comparison_id")
	if !ok {
		return
	}

	image, ext, err := readImageUpload(c, "image")
	if err != nil {
		h.Error(c, err)
		return
	}

	imageURL, err := saveImageUpload("meal", image, ext)
	if err != nil {
		h.Error(c, err)
		return
	}

	comparison, err := h.mealService.UploadAfter(c.Request.Context(), userID, comparisonID, imageURL, image)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, comparison)
}

type adjustRatioRequest struct {
	Ratio float64 `json:"ratio" binding:"min=0,max=1"`
}

// AdjustRatio handles PUT /api/food/meal/adjust/:comparison_id
// @Summary Manually adjust the consumption ratio
// @Description Overrides the AI-estimated ratio on a completed comparison
// and recomputes the net nutrient intake.
// @Tags Meal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param comparison_id path int true "Comparison ID"
// @Param request body adjustRatioRequest true "Ratio in [0,1]"
// @Success 200 {object} response.BaseResponse "Adjusted comparison"
// @Router /api/food/meal/adjust/{comparison_id} [put]
func (h *MealHandler) AdjustRatio(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	comparisonID, ok := h.ParseIDParam(c, "comparison_id")
	if !ok {
		return
	}

	var req adjustRatioRequest
	if !h.BindJSON(c, &req) {
		return
	}

	comparison, err := h.mealService.Adjust(c.Request.Context(), userID, comparisonID, req.Ratio)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, comparison)
}

// GetComparison handles GET /api/food/meal/detail/:comparison_id
// @Summary Read a meal comparison
// @Tags Meal
// @Produce json
// @Security BearerAuth
// @Param comparison_id path int true "Comparison ID"
// @Success 200 {object} response.BaseResponse "Comparison"
// @Failure 404 {object} response.BaseResponse "Not found"
// @Router /api/food/meal/detail/{comparison_id} [get]
func (h *MealHandler) GetComparison(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	comparisonID, ok := h.ParseIDParam(c, "comparison_id")
	if !ok {
		return
	}

	comparison, err := h.mealService.Get(c.Request.Context(), userID, comparisonID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, comparison)
}

// ListComparisons handles GET /api/food/meal/list
// @Summary List meal comparisons
// @Tags Meal
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Max results"
// @Success 200 {object} response.BaseResponse "Comparisons, newest first"
// @Router /api/food/meal/list [get]
func (h *MealHandler) ListComparisons(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	_, limit, _ := h.GetPagination(c)
	status := c.Query("status")

	comparisons, err := h.mealService.List(c.Request.Context(), userID, status, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"comparisons": comparisons, "total": len(comparisons)})
}
