package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"guardians/internal/adapter"
	"guardians/internal/adapter/event"
	"guardians/internal/cache"
	"guardians/internal/config"
	"guardians/internal/domain"
	"guardians/internal/handler"
	"guardians/internal/logger"
	"guardians/internal/metrics"
	"guardians/internal/middleware"
	"guardians/internal/service"
	"guardians/internal/storage"
	"guardians/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to open storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer store.Close()
	appLogger.Info("Storage initialized", zap.String("backend", cfg.Storage.Backend))

	health := map[string]handler.HealthCheck{"storage": store.Ping}

	// Redis is optional; without it every read goes to storage.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		health["redis"] = cacheAdapter.Ping
		appLogger.Info("RedisCacheAdapter initialized", zap.String("address", cfg.Redis.Address))
	} else {
		appLogger.Warn("Redis address is empty, quiz cache is disabled")
	}

	publisher, err := event.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		appLogger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer publisher.Close()

	appMetrics := metrics.New()

	// Initialize services
	quizCache := service.NewQuizCache(store.Quizzes, cacheAdapter, cfg.CacheTTLs.Quiz)
	quizService := service.NewQuizService(store.Quizzes, quizCache, store.Tx)
	attemptService := service.NewAttemptService(store.Attempts, quizCache, cacheAdapter, cfg.CacheTTLs.Stats, publisher, appMetrics)

	authService, err := service.NewAuthService(cfg.JWT)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	validator := validation.NewValidator()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	stopSweeper := make(chan struct{})
	go rateLimiter.RunSweeper(time.Minute, stopSweeper)
	defer close(stopSweeper)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * 2,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.RequestMetrics(appMetrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       300,
	}))

	handler.Routes{
		Auth:        authService,
		Quizzes:     handler.NewQuizHandler(quizService, validator),
		Attempts:    handler.NewAttemptHandler(attemptService, validator),
		Validation:  middleware.NewValidationMiddleware(validator),
		RateLimiter: rateLimiter,
		Metrics:     appMetrics,
		Health:      health,
	}.Register(app)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
