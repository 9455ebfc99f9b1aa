// Package middleware provides HTTP middleware components for the LifeHub API.
//
// This package includes:
//   - Authentication middleware (JWT validation and session verification),
//     with an optional variant for endpoints that also serve anonymous callers
//   - Rate limiting middleware (fixed-window counters in Redis), with a
//     stricter tier for AI generation endpoints
//   - Security middleware (security headers, content-type enforcement, query inspection)
//   - Logging middleware (request/response logging with sensitive data masking)
//   - CORS middleware (cross-origin resource sharing configuration)
//   - Recovery middleware (panic recovery with stack trace logging)
//
// Usage example:
//
//	router := gin.New()
//
//	// Add middleware stack
//	router.Use(middleware.RecoveryMiddleware(nil))
//	router.Use(middleware.LoggingMiddleware(nil))
//	router.Use(middleware.CORSMiddleware(nil))
//	router.Use(middleware.SecurityMiddleware(nil))
//
//	// Protected routes
//	protected := router.Group("/api")
//	protected.Use(middleware.AuthMiddleware(jwtManager, sessionManager))
//	protected.Use(rateLimiter.RateLimitMiddleware())
package middleware
