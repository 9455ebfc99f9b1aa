package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryConfig holds recovery middleware configuration
type RecoveryConfig struct {
	// EnableStackTrace enables logging of stack traces
	EnableStackTrace bool
	// StackTraceSize caps the logged stack trace in bytes
	StackTraceSize int
}

// DefaultRecoveryConfig returns default recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		EnableStackTrace: true,
		StackTraceSize:   4096,
	}
}

// RecoveryMiddleware catches panics, logs them and answers 500. Panics caused
// by the client closing the connection are logged without writing a response,
// since the socket is already gone.
func RecoveryMiddleware(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []zap.Field{
					zap.Any("panic", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
				}

				if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
					fields = append(fields, zap.String("request_id", requestID))
				}
				if userID, ok := GetUserID(c); ok {
					fields = append(fields, zap.Int64("user_id", userID))
				}

				if isBrokenPipe(r) {
					logger.Warn("连接已断开", fields...)
					c.Abort()
					return
				}

				if config.EnableStackTrace {
					stack := debug.Stack()
					if len(stack) > config.StackTraceSize {
						stack = stack[:config.StackTraceSize]
					}
					fields = append(fields, zap.String("stack_trace", string(stack)))
				}

				logger.Error("服务器发生panic", fields...)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.InternalServerError("服务器内部错误"))
			}
		}()

		c.Next()
	}
}

// isBrokenPipe reports whether a recovered value is a write-to-closed-socket
// error surfaced by net/http as a panic.
func isBrokenPipe(r interface{}) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr.Err, &sysErr) {
		return false
	}
	return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
}
