package middleware

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JSON fields whose values must never reach the log file.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"password"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"api_key"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"secret"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"access_token"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"refresh_token"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)"authorization"\s*:\s*"[^"]*"`),
}

// LoggingConfig holds logging middleware configuration
type LoggingConfig struct {
	// SkipPaths are matched by prefix and not logged.
	SkipPaths []string
	// LogRequestBody / LogResponseBody capture bodies up to MaxBodyLogSize
	// bytes, with sensitive fields masked.
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLogSize  int
}

// DefaultLoggingConfig returns default logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths:       []string{"/health", "/uploads"},
		LogRequestBody:  false,
		LogResponseBody: false,
		MaxBodyLogSize:  1024,
	}
}

// responseWriter tees the response body for logging
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// LoggingMiddleware logs one structured line per request, leveled by status
func LoggingMiddleware(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range config.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		var requestBody string
		if config.LogRequestBody && c.Request.Body != nil {
			if bodyBytes, err := io.ReadAll(c.Request.Body); err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) <= config.MaxBodyLogSize {
					requestBody = maskSensitiveData(string(bodyBytes))
				} else {
					requestBody = "[body too large]"
				}
			}
		}

		var tee *responseWriter
		if config.LogResponseBody {
			tee = &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
			c.Writer = tee
		}

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", maskSensitiveData(c.Request.URL.RawQuery)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("response_size", c.Writer.Size()),
		}

		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if requestBody != "" {
			fields = append(fields, zap.String("request_body", requestBody))
		}
		if tee != nil && tee.body.Len() <= config.MaxBodyLogSize {
			fields = append(fields, zap.String("response_body", maskSensitiveData(tee.body.String())))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("HTTP请求", fields...)
		case status >= 400:
			logger.Warn("HTTP请求", fields...)
		default:
			logger.Info("HTTP请求", fields...)
		}
	}
}

// maskSensitiveData replaces the values of sensitive JSON fields with a marker
func maskSensitiveData(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			parts := strings.SplitN(match, ":", 2)
			if len(parts) == 2 {
				return parts[0] + `: "[MASKED]"`
			}
			return match
		})
	}
	return result
}
