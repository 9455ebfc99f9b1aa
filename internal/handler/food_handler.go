package handler

import (
	"net/http"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// FoodHandler handles nutrition analysis, menu recognition, diet records,
// allergen checks and dish recommendation requests
type FoodHandler struct {
	*BaseHandler
	nutritionService service.NutritionService
	menuService      service.MenuService
	dietService      service.DietService
	allergenService  service.AllergenService
	recommendService service.RecommendService
	userService      service.UserService
}

// NewFoodHandler creates a new FoodHandler instance
func NewFoodHandler(
	nutritionService service.NutritionService,
	menuService service.MenuService,
	dietService service.DietService,
	allergenService service.AllergenService,
	recommendService service.RecommendService,
	userService service.UserService,
) *FoodHandler {
	return &FoodHandler{
		BaseHandler:      NewBaseHandler(),
		nutritionService: nutritionService,
		menuService:      menuService,
		dietService:      dietService,
		allergenService:  allergenService,
		recommendService: recommendService,
		userService:      userService,
	}
}

// userContext loads the health goal and allergens for an optional user id.
// Anonymous callers get zero values.
func (h *FoodHandler) userContext(c *gin.Context, userID *int64) (healthGoal string, allergens []string) {
	if userID == nil {
		return "", nil
	}
	user, err := h.userService.GetPreferences(c.Request.Context(), *userID)
	if err != nil || user == nil {
		return "", nil
	}
	return user.HealthGoal, user.Allergens
}

type analyzeRequest struct {
	FoodName string `json:"food_name" binding:"required,min=1,max=200"`
}

// Analyze handles POST /api/food/analyze
// @Summary Analyze food nutrition
// @Description RAG-grounded nutrition analysis for a single food name.
// @Tags Food
// @Accept json
// @Produce json
// @Param request body analyzeRequest true "Food name"
// @Success 200 {object} response.BaseResponse "Nutrition result"
// @Failure 400 {object} response.BaseResponse "Invalid input"
// @Router /api/food/analyze [post]
func (h *FoodHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID := h.OptionalUserID(c)
	_, allergens := h.userContext(c, userID)

	result, err := h.nutritionService.Analyze(c.Request.Context(), req.FoodName, userID, allergens)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, result)
}

// Recognize handles POST /api/food/recognize
// @Summary Recognize menu dishes
// @Description Extracts dish names from a menu photo and scores each against
// the caller's health goal. Anonymous calls skip persistence.
// @Tags Food
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Menu photo"
// @Success 200 {object} response.BaseResponse "Recognized dishes"
// @Failure 400 {object} response.BaseResponse "Invalid upload"
// @Router /api/food/recognize [post]
func (h *FoodHandler) Recognize(c *gin.Context) {
	image, _, err := readImageUpload(c, "image")
	if err != nil {
		h.Error(c, err)
		return
	}

	userID := h.OptionalUserID(c)
	healthGoal, allergens := h.userContext(c, userID)

	dishes, err := h.menuService.Recognize(c.Request.Context(), userID, image, healthGoal, allergens)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"dishes": dishes})
}

// LatestRecognition handles GET /api/food/latest-recognition
// @Summary Latest menu recognition
// @Tags Food
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Latest recognized dishes"
// @Failure 404 {object} response.BaseResponse "No recognition yet"
// @Router /api/food/latest-recognition [get]
func (h *FoodHandler) LatestRecognition(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	recognition, err := h.menuService.Latest(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if recognition == nil {
		c.JSON(http.StatusNotFound, response.ErrorWithData(
			apperrors.ErrNotFound, "暂无菜单识别记录", gin.H{"dishes": []model.RecognizedDish{}}))
		return
	}

	h.Success(c, recognition)
}

// CreateRecord handles POST /api/food/record
// @Summary Create a diet record
// @Tags Food
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateDietRecordRequest true "Diet record"
// @Success 201 {object} response.BaseResponse "Created record"
// @Failure 400 {object} response.BaseResponse "Invalid input"
// @Router /api/food/record [post]
func (h *FoodHandler) CreateRecord(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req service.CreateDietRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	record, err := h.dietService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, record)
}

// ListRecords handles GET /api/food/records
// @Summary List diet records
// @Description Optional start_date/end_date (YYYY-MM-DD) narrow the range.
// @Tags Food
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Diet records"
// @Router /api/food/records [get]
func (h *FoodHandler) ListRecords(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	start, end, ok := h.ParseDateRangeQuery(c)
	if !ok {
		return
	}

	records, err := h.dietService.List(c.Request.Context(), userID, start, end)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"records": records, "total": len(records)})
}

// ListTodayRecords handles GET /api/food/records/today
// @Summary Today's diet records
// @Tags Food
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Today's records"
// @Router /api/food/records/today [get]
func (h *FoodHandler) ListTodayRecords(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	records, err := h.dietService.ListToday(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, gin.H{"records": records, "total": len(records)})
}

// UpdateRecord handles PUT /api/food/diet/:id
// @Summary Update a diet record
// @Tags Food
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param request body service.UpdateDietRecordRequest true "Fields to update"
// @Success 200 {object} response.BaseResponse "Updated record"
// @Failure 403 {object} response.BaseResponse "Not the owner"
// @Failure 404 {object} response.BaseResponse "Record not found"
// @Router /api/food/diet/{id} [put]
func (h *FoodHandler) UpdateRecord(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateDietRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	record, err := h.dietService.Update(c.Request.Context(), userID, recordID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, record)
}

// DeleteRecord handles DELETE /api/food/diet/:id
// @Summary Delete a diet record
// @Tags Food
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.BaseResponse "Deleted"
// @Failure 403 {object} response.BaseResponse "Not the owner"
// @Failure 404 {object} response.BaseResponse "Record not found"
// @Router /api/food/diet/{id} [delete]
func (h *FoodHandler) DeleteRecord(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.dietService.Delete(c.Request.Context(), userID, recordID); err != nil {
		h.Error(c, err)
		return
	}

	h.SuccessWithMessage(c, "删除成功", nil)
}

type allergenCheckRequest struct {
	FoodName    string   `json:"food_name" binding:"required,min=1,max=200"`
	Ingredients []string `json:"ingredients"`
	Allergens   []string `json:"allergens"`
}

// CheckAllergens handles POST /api/food/allergen/check
// @Summary Check a dish for allergens
// @Description Fuses keyword, AI and recipe-graph detection. Authenticated
// callers default to their stored allergen list.
// @Tags Food
// @Accept json
// @Produce json
// @Param request body allergenCheckRequest true "Dish and optional allergen overrides"
// @Success 200 {object} response.BaseResponse "Fusion result"
// @Router /api/food/allergen/check [post]
func (h *FoodHandler) CheckAllergens(c *gin.Context) {
	var req allergenCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID := h.OptionalUserID(c)
	userAllergens := req.Allergens
	if len(userAllergens) == 0 {
		_, userAllergens = h.userContext(c, userID)
	}

	result, err := h.allergenService.Check(c.Request.Context(), userID, req.FoodName, req.Ingredients, userAllergens)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, result)
}

// AllergenCategories handles GET /api/food/allergen/categories
// @Summary Allergen category catalog
// @Tags Food
// @Produce json
// @Success 200 {object} response.BaseResponse "Eight canonical categories"
// @Router /api/food/allergen/categories [get]
func (h *FoodHandler) AllergenCategories(c *gin.Context) {
	h.Success(c, gin.H{"categories": h.allergenService.Categories()})
}

// Recommend handles GET /api/food/recommend
// @Summary Recommend dishes
// @Description Scores catalog dishes against goal, calorie budget, variety
// and preference, excluding the caller's allergens.
// @Tags Food
// @Produce json
// @Security BearerAuth
// @Param meal_type query string false "Meal slot"
// @Param limit query int false "Max results"
// @Success 200 {object} response.BaseResponse "Ranked recommendations"
// @Router /api/food/recommend [get]
func (h *FoodHandler) Recommend(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	_, limit, _ := h.GetPagination(c)
	mealType := c.Query("meal_type")

	result, err := h.recommendService.Recommend(c.Request.Context(), userID, mealType, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, result)
}
