package handler

import (
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user profile, preference and data-erasure requests
type UserHandler struct {
	*BaseHandler
	userService  service.UserService
	aiLogService service.AILogService
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(userService service.UserService, aiLogService service.AILogService) *UserHandler {
	return &UserHandler{
		BaseHandler:  NewBaseHandler(),
		userService:  userService,
		aiLogService: aiLogService,
	}
}

// Me handles GET /api/user/me
// @Summary Current user profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Profile"
// @Failure 401 {object} response.BaseResponse "Unauthorized"
// @Router /api/user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, user)
}

// GetPreferences handles GET /api/user/preferences
// @Summary Read health preferences
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Preferences"
// @Router /api/user/preferences [get]
func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, user)
}

// UpdatePreferences handles PUT /api/user/preferences
// @Summary Update health preferences
// @Description Partial update. Only the provided fields change.
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdatePreferencesRequest true "Preference fields"
// @Success 200 {object} response.BaseResponse "Updated preferences"
// @Failure 400 {object} response.BaseResponse "Invalid input"
// @Router /api/user/preferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req service.UpdatePreferencesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, user)
}

// ForgetMe handles DELETE /api/user/data
// @Summary Delete account and all data
// @Description Hard-deletes the account and every dependent record in one transaction.
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Purge result"
// @Failure 404 {object} response.BaseResponse "Account not found"
// @Router /api/user/data [delete]
func (h *UserHandler) ForgetMe(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	result, err := h.userService.ForgetMe(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.SuccessWithMessage(c, "账户数据已删除", result)
}

// ListAILogs handles GET /api/user/ai-logs
// @Summary List AI call logs
// @Description Paginated AI call history for the current user, newest first.
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param call_type query string false "Filter by call type"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.BaseResponse "Log page"
// @Router /api/user/ai-logs [get]
func (h *UserHandler) ListAILogs(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	_, limit, offset := h.GetPagination(c)
	callType := c.Query("call_type")

	page, err := h.aiLogService.List(c.Request.Context(), userID, callType, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, page)
}

// AILogStats handles GET /api/user/ai-logs/stats
// @Summary AI call statistics
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Aggregated call stats"
// @Router /api/user/ai-logs/stats [get]
func (h *UserHandler) AILogStats(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	stats, err := h.aiLogService.Stats(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, stats)
}
