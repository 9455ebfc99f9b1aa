package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/middleware"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// NewBaseHandler creates a new BaseHandler instance
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// Success sends a successful response with data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, response.Success(data))
}

// SuccessWithMessage sends a successful response with a custom message
func (h *BaseHandler) SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &response.BaseResponse{
		Code:      200,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// Created sends a 201 Created response
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, response.Success(data))
}

// NoContent sends a 204 No Content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error handles error responses based on error type
func (h *BaseHandler) Error(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		logger.Error("未预期的错误", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.InternalServerError("服务器内部错误"))
		return
	}

	httpStatus := h.mapErrorCodeToHTTPStatus(appErr.Code)
	c.JSON(httpStatus, response.Error(appErr.Code, appErr.Message))
}

// BadRequest sends a 400 Bad Request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, response.BadRequestError(message))
}

// Unauthorized sends a 401 Unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, response.UnauthorizedError(message))
}

// Forbidden sends a 403 Forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, response.ForbiddenError(message))
}

// NotFound sends a 404 Not Found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, response.NotFoundError(message))
}

// Conflict sends a 409 Conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, response.Error(apperrors.ErrConflict, message))
}

// InternalError sends a 500 Internal Server Error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, response.InternalServerError(message))
}

// mapErrorCodeToHTTPStatus maps application error codes to HTTP status codes
func (h *BaseHandler) mapErrorCodeToHTTPStatus(code int) int {
	switch {
	case code >= 4000 && code < 4010:
		return http.StatusBadRequest
	case code >= 4010 && code < 4030:
		return http.StatusUnauthorized
	case code >= 4030 && code < 4040:
		return http.StatusForbidden
	case code >= 4040 && code < 4050:
		return http.StatusNotFound
	case code >= 4050 && code < 4090:
		return http.StatusMethodNotAllowed
	case code >= 4090 && code < 5000:
		return http.StatusConflict
	case code >= 5000 && code < 6000:
		return http.StatusInternalServerError
	case code >= 6000:
		switch code {
		case apperrors.ErrUserExists:
			return http.StatusConflict
		case apperrors.ErrUserNotFound, apperrors.ErrRecordNotFound:
			return http.StatusNotFound
		case apperrors.ErrWrongPassword, apperrors.ErrInvalidCredentials, apperrors.ErrTokenExpired:
			return http.StatusUnauthorized
		case apperrors.ErrComparisonState:
			return http.StatusConflict
		case apperrors.ErrUploadInvalid, apperrors.ErrExerciseType:
			return http.StatusBadRequest
		case apperrors.ErrKnowledgeBase:
			return http.StatusInternalServerError
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusInternalServerError
	}
}

// GetUserID extracts user ID from context, returns error response if not found
func (h *BaseHandler) GetUserID(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		h.Unauthorized(c, "用户未认证")
		return 0, false
	}
	return userID, true
}

// OptionalUserID returns the authenticated user id, or nil for anonymous calls.
func (h *BaseHandler) OptionalUserID(c *gin.Context) *int64 {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil
	}
	return &userID
}

// GetSessionID extracts session ID from context
func (h *BaseHandler) GetSessionID(c *gin.Context) (string, bool) {
	return middleware.GetSessionID(c)
}

// ParseIDParam parses a positive int64 path parameter
func (h *BaseHandler) ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "路径参数无效: "+name)
		return 0, false
	}
	return id, true
}

// PaginationParams represents pagination query parameters
type PaginationParams struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetPagination extracts and validates pagination parameters with defaults
func (h *BaseHandler) GetPagination(c *gin.Context) (page, limit, offset int) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		params.Page = 1
		params.Limit = 20
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	offset = (params.Page - 1) * params.Limit
	return params.Page, params.Limit, offset
}

// BindJSON binds JSON request body and handles validation errors
func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.BadRequest(c, "请求参数无效: "+err.Error())
		return false
	}
	return true
}

// BindQuery binds query parameters and handles validation errors
func (h *BaseHandler) BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.BadRequest(c, "查询参数无效: "+err.Error())
		return false
	}
	return true
}

// BindURI binds URI parameters and handles validation errors
func (h *BaseHandler) BindURI(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindUri(obj); err != nil {
		h.BadRequest(c, "路径参数无效: "+err.Error())
		return false
	}
	return true
}

// ParseDateQuery parses an optional YYYY-MM-DD query parameter, defaulting
// to today when absent.
func (h *BaseHandler) ParseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now(), true
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		h.BadRequest(c, "日期格式无效，应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// ParseDateRangeQuery parses optional start_date/end_date query parameters
// and checks their ordering.
func (h *BaseHandler) ParseDateRangeQuery(c *gin.Context) (start, end *time.Time, ok bool) {
	parse := func(name string) (*time.Time, bool) {
		raw := c.Query(name)
		if raw == "" {
			return nil, true
		}
		date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			h.BadRequest(c, name+" 日期格式无效")
			return nil, false
		}
		return &date, true
	}

	start, ok = parse("start_date")
	if !ok {
		return nil, nil, false
	}
	end, ok = parse("end_date")
	if !ok {
		return nil, nil, false
	}
	if start != nil && end != nil && start.After(*end) {
		h.BadRequest(c, "开始日期不能晚于结束日期")
		return nil, nil, false
	}
	return start, end, true
}
