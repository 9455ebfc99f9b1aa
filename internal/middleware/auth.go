package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/jwt"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for the authenticated identity
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUsername  = "username"
	ContextKeySessionID = "session_id"
)

var (
	errNoToken        = errors.New("missing bearer token")
	errBadToken       = errors.New("token invalid")
	errSessionGone    = errors.New("session missing or expired")
	errSessionLookup  = errors.New("session lookup failed")
	errUserMismatch   = errors.New("session user mismatch")
	errWrongTokenType = errors.New("not an access token")
)

// bearerToken pulls the raw token out of the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// authenticate validates the access token and its backing Redis session.
// On success the identity is stored on the gin context.
func authenticate(c *gin.Context, jwtManager jwt.JWTManager, sessionManager session.SessionManager) error {
	token, ok := bearerToken(c)
	if !ok {
		return errNoToken
	}

	claims, err := jwtManager.ValidateToken(token)
	if err != nil {
		return errBadToken
	}
	if claims.Type != jwt.TypeAccess {
		return errWrongTokenType
	}

	sess, err := sessionManager.GetSession(c.Request.Context(), claims.SessionID)
	if err != nil {
		logger.Error("获取会话失败",
			zap.Error(err),
			zap.String("session_id", claims.SessionID),
		)
		return errSessionLookup
	}
	if sess == nil {
		return errSessionGone
	}
	if sess.UserID != claims.UserID {
		logger.Warn("会话用户不匹配",
			zap.Int64("token_user_id", claims.UserID),
			zap.Int64("session_user_id", sess.UserID),
		)
		return errUserMismatch
	}

	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyUsername, claims.Username)
	c.Set(ContextKeySessionID, claims.SessionID)
	return nil
}

// AuthMiddleware rejects requests that do not carry a valid access token
// backed by a live session.
func AuthMiddleware(jwtManager jwt.JWTManager, sessionManager session.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authenticate(c, jwtManager, sessionManager)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, errNoToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedError("缺少认证令牌"))
		case errors.Is(err, errSessionLookup):
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.InternalServerError("会话验证失败"))
		case errors.Is(err, errSessionGone):
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedError("会话不存在或已过期"))
		default:
			logger.Warn("认证失败",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedError("无效或过期的令牌"))
		}
	}
}

// OptionalAuthMiddleware attaches the identity when a valid token is present
// and lets anonymous requests through untouched. Used by the food analysis
// endpoints, where authentication only enables persistence and
// personalization.
func OptionalAuthMiddleware(jwtManager jwt.JWTManager, sessionManager session.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Errors are deliberately swallowed: a bad token degrades the
		// request to anonymous rather than rejecting it.
		_ = authenticate(c, jwtManager, sessionManager)
		c.Next()
	}
}

// GetUserID extracts the authenticated user id from context
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetUsername extracts the authenticated username from context
func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUsername)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// GetSessionID extracts the session id from context
func GetSessionID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeySessionID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
