package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/monitoring"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.Settings{}, &models.Token{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	// Redis is an accelerator here, not a dependency: fall back to the
	// in-process cache when it is unreachable.
	var taskCache cache.Cache
	redisCache := cache.NewRedisCacheFromClient(redisClient)
	if err := redisCache.Health(); err != nil {
		log.Printf("redis unavailable, using in-memory cache: %v", err)
		taskCache = cache.NewMemoryCache()
	} else {
		taskCache = redisCache
	}

	userService := services.NewUserService()
	taskService := services.NewCachedTaskService(services.NewTaskService(), taskCache)
	settingsService := services.NewSettingsService()
	authService := services.NewAuthService(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	registerService := services.NewRegisterService(cfg.Auth.BCryptCost)

	jobQueue := worker.NewQueue(redisClient, "default")
	jobWorker := worker.NewWorker(worker.WorkerConfig{
		RedisClient: redisClient,
		Queues:      cfg.Worker.Queues,
	})
	worker.RegisterJobHandlers(jobWorker, db, userService)
	jobWorker.Start(cfg.Worker.Concurrency)

	taskHandler := handlers.NewTaskHandler(db, taskService)
	userHandler := handlers.NewUserHandler(db, userService)
	settingsHandler := handlers.NewSettingsHandler(db, settingsService)
	authHandler := handlers.NewAuthHandler(db, authService, jobQueue)
	registerHandler := handlers.NewRegisterHandler(db, registerService)

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
	monitoring.RegisterHealthCheck("cache", func(ctx context.Context) error {
		return taskCache.Health()
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.Default())
	router.Use(monitoring.MetricsMiddleware())

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		router.Use(limiter.Middleware())
	}

	router.GET("/health", monitoring.HealthHandler)
	router.GET("/metrics", monitoring.MetricsHandler)

	api := router.Group("/api")
	api.POST("/register", registerHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	authed.GET("/profile", userHandler.GetUserProfile)
	authed.GET("/settings", settingsHandler.GetSettings)
	authed.PUT("/settings", settingsHandler.UpdateSettings)
	authed.GET("/tasks", taskHandler.GetTasks)
	authed.POST("/tasks", taskHandler.CreateTask)
	authed.PATCH("/tasks/bulk", taskHandler.BulkUpdateTasks)
	authed.GET("/tasks/:id", taskHandler.GetTaskByID)
	authed.PUT("/tasks/:id", taskHandler.UpdateTask)
	authed.DELETE("/tasks/:id", taskHandler.DeleteTask)
	authed.PATCH("/tasks/:id/toggle", taskHandler.ToggleComplete)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	jobWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	redisClient.Close()
}
