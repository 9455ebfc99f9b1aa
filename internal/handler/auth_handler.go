package handler

import (
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	*BaseHandler
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(),
		authService: authService,
	}
}

// Register handles POST /api/user/register
// @Summary Register a new user
// @Description Create a new account with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "Registration details"
// @Success 201 {object} response.BaseResponse "User registered"
// @Failure 400 {object} response.BaseResponse "Invalid input"
// @Failure 409 {object} response.BaseResponse "Username already exists"
// @Router /api/user/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	authResp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, authResp)
}

// Login handles POST /api/user/login
// @Summary User login
// @Description Authenticate with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "Login credentials"
// @Success 200 {object} response.BaseResponse "Login successful"
// @Failure 401 {object} response.BaseResponse "Invalid credentials"
// @Router /api/user/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ipAddress := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	authResp, err := h.authService.Login(c.Request.Context(), &req, ipAddress, userAgent)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, authResp)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken handles POST /api/user/refresh
// @Summary Refresh token pair
// @Description Exchange a refresh token for a fresh access/refresh pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body refreshTokenRequest true "Refresh token"
// @Success 200 {object} response.BaseResponse "Token refreshed"
// @Failure 401 {object} response.BaseResponse "Invalid refresh token"
// @Router /api/user/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	authResp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, authResp)
}

// Logout handles POST /api/user/logout
// @Summary User logout
// @Description Invalidate the current session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.BaseResponse "Logout successful"
// @Failure 401 {object} response.BaseResponse "Unauthorized"
// @Router /api/user/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := h.GetSessionID(c)
	if !ok {
		h.Unauthorized(c, "会话不存在")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.SuccessWithMessage(c, "登出成功", nil)
}
