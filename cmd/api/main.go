package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/knowledge"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/mets"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/middleware"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/database"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/jwt"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/redis"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/router"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/service"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/vectorstore"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		fmt.Printf("Failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitLogger(); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Logger.Sync()

	logger.Info("Starting LifeHub API",
		zap.String("version", config.GlobalConfig.App.Version),
		zap.String("mode", config.GlobalConfig.App.Mode),
	)

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	logger.Info("Database connection established")

	if err := database.Migrate(database.GetDB()); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database migrations applied")

	// Initialize Redis
	if err := redis.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Redis connection established")

	// Setup dependencies
	deps, err := setupDependencies()
	if err != nil {
		logger.Fatal("Failed to setup dependencies", zap.Error(err))
	}

	// Initialize router with dependencies
	ginRouter := router.SetupRouter(deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.GlobalConfig.App.Port),
		Handler:      ginRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", zap.Int("port", config.GlobalConfig.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// setupDependencies initializes all dependencies for dependency injection
func setupDependencies() (*router.Dependencies, error) {
	db := database.GetDB()
	redisClient := redis.Rdb

	jwtManager := jwt.NewJWTManager(
		config.GlobalConfig.JWT.Secret,
		config.GlobalConfig.JWT.AccessTokenExpire,
		config.GlobalConfig.JWT.RefreshTokenExpire,
	)
	sessionManager := session.NewSessionManager(redisClient)

	// Initialize rate limiter
	rateLimitConfig := &middleware.RateLimitConfig{
		UserRequestsPerMinute: config.GlobalConfig.RateLimit.APICallsPerMinute,
		UserRequestsPerHour:   config.GlobalConfig.RateLimit.APICallsPerHour,
		IPRequestsPerMinute:   100,
		AIGenerationPerMinute: config.GlobalConfig.RateLimit.AIPerMinute,
	}
	rateLimiter := middleware.NewRateLimiter(redisClient, rateLimitConfig)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	dietRepo := repository.NewDietRecordRepository(db)
	menuRepo := repository.NewMenuRecognitionRepository(db)
	tripRepo := repository.NewTripPlanRepository(db)
	exerciseRepo := repository.NewExerciseRecordRepository(db)
	mealRepo := repository.NewMealComparisonRepository(db)
	aiLogRepo := repository.NewAICallLogRepository(db)

	// Initialize knowledge bases
	store, err := vectorstore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	km := knowledge.NewManager(store, &config.GlobalConfig.Knowledge, &config.GlobalConfig.AI)
	if _, err := km.EnsureInitialized(context.Background()); err != nil {
		logger.Warn("知识库初始化失败, 将在无检索上下文下运行", zap.Error(err))
	}

	// Initialize services
	llm := service.NewLLMClient(&config.GlobalConfig.AI, aiLogRepo)
	geocoder := service.NewGeocoder(config.GlobalConfig.AI.GeocodeEndpoint)
	calculator := mets.NewCalculator(km)

	authService := service.NewAuthService(userRepo, jwtManager, sessionManager)
	userService := service.NewUserService(userRepo, sessionManager)
	aiLogService := service.NewAILogService(aiLogRepo)
	nutritionService := service.NewNutritionService(llm, km)
	menuService := service.NewMenuService(llm, nutritionService, menuRepo)
	dietService := service.NewDietService(dietRepo)
	allergenService := service.NewAllergenService(llm, km)
	recommendService := service.NewRecommendService(userRepo, dietRepo)
	mealService := service.NewMealService(llm, mealRepo)
	tripService := service.NewTripService(llm, tripRepo, userRepo, geocoder, calculator)
	exerciseService := service.NewExerciseService(exerciseRepo, tripRepo, userRepo, calculator)
	statsService := service.NewStatsService(dietRepo, tripRepo, exerciseRepo, userRepo)

	return &router.Dependencies{
		DB:               db,
		RedisClient:      redisClient,
		JWTManager:       jwtManager,
		SessionManager:   sessionManager,
		RateLimiter:      rateLimiter,
		AuthService:      authService,
		UserService:      userService,
		AILogService:     aiLogService,
		NutritionService: nutritionService,
		MenuService:      menuService,
		DietService:      dietService,
		AllergenService:  allergenService,
		RecommendService: recommendService,
		MealService:      mealService,
		TripService:      tripService,
		ExerciseService:  exerciseService,
		StatsService:     statsService,
	}, nil
}
