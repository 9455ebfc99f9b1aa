package middleware

import (
	"net/http"
	"strings"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// securityHeaders are set on every response.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Content-Security-Policy":   "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
}

// suspiciousFragments are substrings that never appear in legitimate query
// parameters of this API (dates, enum values, pagination numbers). Matching
// on fragments instead of full SQL/XSS grammars avoids false positives on
// food and place names, which may contain quotes or CJK punctuation.
var suspiciousFragments = []string{
	"<script", "javascript:", "onerror=", "onload=", "<iframe",
	"union select", "union all", "drop table", "insert into",
	"delete from", "--", "/*", "*/", "\x00",
}

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	EnableQueryInspection bool
	EnableSecurityHeaders bool
	// AllowedContentTypes restricts POST/PUT/PATCH request bodies.
	AllowedContentTypes []string
}

// DefaultSecurityConfig returns default security configuration
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		EnableQueryInspection: true,
		EnableSecurityHeaders: true,
		AllowedContentTypes: []string{
			"application/json",
			"application/x-www-form-urlencoded",
			"multipart/form-data",
		},
	}
}

// SecurityMiddleware sets security headers, enforces body content types and
// rejects requests whose query parameters contain injection fragments.
func SecurityMiddleware(config *SecurityConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultSecurityConfig()
	}

	return func(c *gin.Context) {
		if config.EnableSecurityHeaders {
			for name, value := range securityHeaders {
				c.Header(name, value)
			}
		}

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := c.GetHeader("Content-Type")
			if contentType != "" && !contentTypeAllowed(contentType, config.AllowedContentTypes) {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, response.Error(4150, "不支持的内容类型"))
				return
			}
		}

		if config.EnableQueryInspection {
			for key, values := range c.Request.URL.Query() {
				for _, value := range values {
					if looksSuspicious(value) {
						logger.Warn("检测到可疑请求参数",
							zap.String("ip", c.ClientIP()),
							zap.String("param", key),
							zap.String("path", c.Request.URL.Path),
						)
						c.AbortWithStatusJSON(http.StatusBadRequest, response.BadRequestError("检测到非法字符"))
						return
					}
				}
			}
		}

		c.Next()
	}
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	mainType := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	for _, a := range allowed {
		if mainType == a {
			return true
		}
	}
	return false
}

func looksSuspicious(value string) bool {
	lowered := strings.ToLower(value)
	for _, frag := range suspiciousFragments {
		if strings.Contains(lowered, frag) {
			return true
		}
	}
	return false
}
