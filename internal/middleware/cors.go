package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API. "*" allows
	// all origins and supports "*.example.com" suffix patterns.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders are echoed back on preflights.
	AllowedMethods []string
	AllowedHeaders []string

	// ExposedHeaders are made readable to browser scripts.
	ExposedHeaders []string

	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns a permissive configuration for development
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Accept",
			"Authorization",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// ProductionCORSConfig narrows the default to an explicit origin list
func ProductionCORSConfig(allowedOrigins []string) *CORSConfig {
	config := DefaultCORSConfig()
	config.AllowedOrigins = allowedOrigins
	return config
}

// CORSMiddleware creates CORS middleware with the given configuration
func CORSMiddleware(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	allowMethods := strings.Join(config.AllowedMethods, ", ")
	allowHeaders := strings.Join(config.AllowedHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if matched := resolveOrigin(origin, config.AllowedOrigins); matched != "" {
				c.Header("Access-Control-Allow-Origin", matched)
				if config.AllowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				if exposeHeaders != "" {
					c.Header("Access-Control-Expose-Headers", exposeHeaders)
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			if allowMethods != "" {
				c.Header("Access-Control-Allow-Methods", allowMethods)
			}
			if allowHeaders != "" {
				c.Header("Access-Control-Allow-Headers", allowHeaders)
			}
			if config.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveOrigin returns the origin to echo back, or "" when not allowed.
func resolveOrigin(origin string, allowedOrigins []string) string {
	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*", allowed == origin:
			return origin
		case strings.HasPrefix(allowed, "*."):
			if strings.HasSuffix(origin, allowed[1:]) {
				return origin
			}
		}
	}
	return ""
}
