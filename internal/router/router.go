package router

import (
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/handler"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/middleware"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/jwt"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	customvalidator "github.com/TheBreeze12/lifehub-backend-sub000/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies needed for router setup
type Dependencies struct {
	DB             *gorm.DB
	RedisClient    *redis.Client
	JWTManager     jwt.JWTManager
	SessionManager session.SessionManager
	RateLimiter    *middleware.RateLimiter

	// Services
	AuthService      service.AuthService
	UserService      service.UserService
	AILogService     service.AILogService
	NutritionService service.NutritionService
	MenuService      service.MenuService
	DietService      service.DietService
	AllergenService  service.AllergenService
	RecommendService service.RecommendService
	MealService      service.MealService
	TripService      service.TripService
	ExerciseService  service.ExerciseService
	StatsService     service.StatsService
}

// SetupRouter configures and returns the Gin router with all routes and middleware
func SetupRouter(deps *Dependencies) *gin.Engine {
	if config.GlobalConfig != nil && config.GlobalConfig.App.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register domain validation tags on gin's binding validator so
	// request structs can use meal_slot, exercise_type and friends.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		customvalidator.RegisterDomainValidators(v)
	}

	router := gin.New()

	// Global middleware stack (order matters!)
	router.Use(middleware.RecoveryMiddleware(nil))
	router.Use(middleware.LoggingMiddleware(nil))
	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	router.Use(middleware.SecurityMiddleware(nil))

	healthHandler := handler.NewHealthHandler()
	router.GET("/health", healthHandler.HealthCheck)

	// Uploaded meal photos are served back by URL.
	router.Static("/uploads", uploadDir())

	api := router.Group("/api")
	{
		setupPublicRoutes(api, deps)
		setupProtectedRoutes(api, deps)
	}

	return router
}

func uploadDir() string {
	if config.GlobalConfig != nil && config.GlobalConfig.Upload.Dir != "" {
		return config.GlobalConfig.Upload.Dir
	}
	return "./uploads"
}

// setupPublicRoutes configures routes that need no bearer token. The food
// analysis endpoints accept an optional token: authenticated calls get
// personalization and persistence, anonymous ones do not.
func setupPublicRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	authHandler := handler.NewAuthHandler(deps.AuthService)
	foodHandler := handler.NewFoodHandler(
		deps.NutritionService, deps.MenuService, deps.DietService,
		deps.AllergenService, deps.RecommendService, deps.UserService)

	user := rg.Group("/user")
	{
		user.POST("/register", authHandler.Register)
		user.POST("/login", authHandler.Login)
		user.POST("/refresh", authHandler.RefreshToken)
	}

	optional := rg.Group("/food")
	optional.Use(middleware.OptionalAuthMiddleware(deps.JWTManager, deps.SessionManager))
	{
		ai := optional.Group("")
		ai.Use(deps.RateLimiter.AIGenerationRateLimitMiddleware())
		ai.POST("/analyze", foodHandler.Analyze)
		ai.POST("/recognize", foodHandler.Recognize)
		ai.POST("/allergen/check", foodHandler.CheckAllergens)

		optional.GET("/allergen/categories", foodHandler.AllergenCategories)
	}
}

// setupProtectedRoutes configures routes behind authentication
func setupProtectedRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	protected := rg.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWTManager, deps.SessionManager))
	protected.Use(deps.RateLimiter.RateLimitMiddleware())

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService, deps.AILogService)
	foodHandler := handler.NewFoodHandler(
		deps.NutritionService, deps.MenuService, deps.DietService,
		deps.AllergenService, deps.RecommendService, deps.UserService)
	mealHandler := handler.NewMealHandler(deps.MealService)
	tripHandler := handler.NewTripHandler(deps.TripService)
	exerciseHandler := handler.NewExerciseHandler(deps.ExerciseService)
	statsHandler := handler.NewStatsHandler(deps.StatsService)

	// User routes
	user := protected.Group("/user")
	{
		user.POST("/logout", authHandler.Logout)
		user.GET("/me", userHandler.Me)
		user.GET("/preferences", userHandler.GetPreferences)
		user.PUT("/preferences", userHandler.UpdatePreferences)
		user.DELETE("/data", userHandler.ForgetMe)
		user.GET("/ai-logs", userHandler.ListAILogs)
		user.GET("/ai-logs/stats", userHandler.AILogStats)
	}

	// Food routes
	food := protected.Group("/food")
	{
		food.GET("/latest-recognition", foodHandler.LatestRecognition)
		food.POST("/record", foodHandler.CreateRecord)
		food.GET("/records", foodHandler.ListRecords)
		food.GET("/records/today", foodHandler.ListTodayRecords)
		food.PUT("/diet/:id", foodHandler.UpdateRecord)
		food.DELETE("/diet/:id", foodHandler.DeleteRecord)
		food.GET("/recommend", foodHandler.Recommend)

		// Meal photo comparison (before/after uploads hit the vision model)
		meal := food.Group("/meal")
		{
			vision := meal.Group("")
			vision.Use(deps.RateLimiter.AIGenerationRateLimitMiddleware())
			vision.POST("/before", mealHandler.UploadBefore)
			vision.POST("/after/:comparison_id", mealHandler.UploadAfter)

			meal.PUT("/adjust/:comparison_id", mealHandler.AdjustRatio)
			meal.GET("/detail/:comparison_id", mealHandler.GetComparison)
			meal.GET("/list", mealHandler.ListComparisons)
		}
	}

	// Trip plan routes (generation gets the stricter AI rate limit)
	trip := protected.Group("/trip")
	{
		generation := trip.Group("")
		generation.Use(deps.RateLimiter.AIGenerationRateLimitMiddleware())
		generation.POST("/generate", tripHandler.Generate)

		trip.GET("/list", tripHandler.List)
		trip.GET("/recent", tripHandler.Recent)
		trip.GET("/home", tripHandler.Home)
		trip.GET("/:id", tripHandler.Get)
		trip.DELETE("/:id", tripHandler.Delete)
	}

	// Exercise record routes
	exercise := protected.Group("/exercise")
	{
		exercise.POST("/record", exerciseHandler.Create)
		exercise.DELETE("/record/:id", exerciseHandler.Delete)
		exercise.GET("/records", exerciseHandler.List)
		exercise.GET("/records/:id", exerciseHandler.Get)
	}

	// Statistics routes
	stats := protected.Group("/stats")
	{
		stats.GET("/calories/daily", statsHandler.DailyCalories)
		stats.GET("/calories/weekly", statsHandler.WeeklyCalories)
		stats.GET("/nutrients/daily", statsHandler.DailyNutrients)
		stats.GET("/goal-progress", statsHandler.GoalProgress)
		stats.GET("/exercise-frequency", statsHandler.ExerciseFrequency)
	}
}
