package router

import (
	"migration-web/internal/config"
	"migration-web/internal/handler"
	"migration-web/internal/middleware"
	"migration-web/internal/repository"
	"migration-web/internal/service"
	"migration-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Initialize services
	novatabClient := service.NewNovaTabClient()
	authService := service.NewAuthService(userRepo, cfg)
	migrationService := service.NewMigrationService(jobRepo, novatabClient, redisClient,
		utils.GetLogger(), cfg.LeaseTTL, cfg.ProgressEvery)
	configService := service.NewConfigService(configRepo, novatabClient)
	parseService := service.NewParseService()
	exportService := service.NewExportService()

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	migrationHandler := handler.NewMigrationHandler(migrationService, parseService, exportService, asynqClient)
	novatabHandler := handler.NewNovaTabHandler(configService)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	protected.Get("/auth/me", authHandler.Me)

	// Migration routes
	migration := protected.Group("/migration")
	migration.Post("/parse", migrationHandler.ParseFile)
	migration.Post("/jobs", migrationHandler.CreateJob)
	migration.Get("/jobs", migrationHandler.GetJobs)
	migration.Get("/jobs/:id", migrationHandler.GetJob)
	migration.Post("/jobs/:id/execute", migrationHandler.ExecuteJob)
	migration.Post("/jobs/:id/execute-async", migrationHandler.ExecuteJobAsync)
	migration.Get("/jobs/:id/progress", migrationHandler.GetProgress)
	migration.Get("/jobs/:id/logs", migrationHandler.GetLogs)
	migration.Get("/jobs/:id/logs/export", migrationHandler.ExportLogs)
	migration.Delete("/jobs/:id", migrationHandler.DeleteJob)

	// NovaTab configuration routes
	novatab := protected.Group("/novatab")
	novatab.Post("/configs", novatabHandler.CreateConfig)
	novatab.Get("/configs", novatabHandler.GetConfigs)
	novatab.Get("/configs/:id", novatabHandler.GetConfig)
	novatab.Put("/configs/:id", novatabHandler.UpdateConfig)
	novatab.Delete("/configs/:id", novatabHandler.DeleteConfig)
	novatab.Post("/configs/:id/test", novatabHandler.TestConfig)
}
