package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lumitrack/lumitrack-api/api/swagger"
	"github.com/lumitrack/lumitrack-api/internal/handler"
	"github.com/lumitrack/lumitrack-api/internal/middleware"
	"github.com/lumitrack/lumitrack-api/internal/models"
	"github.com/lumitrack/lumitrack-api/internal/repository"
	"github.com/lumitrack/lumitrack-api/internal/service"
	"github.com/lumitrack/lumitrack-api/pkg/config"
	"github.com/lumitrack/lumitrack-api/pkg/database"
	"github.com/lumitrack/lumitrack-api/pkg/logger"
	corsmiddleware "github.com/lumitrack/lumitrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lumitrack/lumitrack-api/pkg/middleware/requestid"
)

// @title Lumitrack API
// @version 1.0.0
// @description Behavior data collection and graphing service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Graphs.CacheEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	programRepo := repository.NewProgramRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	observationRepo := repository.NewObservationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Graphs.CacheTTL, logr, cfg.Graphs.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lumitrack-api",
	})
	clientSvc := service.NewClientService(clientRepo, userRepo, userRepo, validate, logr)
	programSvc := service.NewProgramService(programRepo, userRepo, validate, logr)
	targetSvc := service.NewTargetService(targetRepo, observationRepo, userRepo, cacheSvc, validate, logr)
	observationSvc := service.NewObservationService(observationRepo, cacheSvc, logr)
	graphSvc := service.NewGraphService(targetRepo, observationRepo, cacheSvc, metricsSvc, logr, cfg.Graphs.ApproximationCredit, cfg.Graphs.CacheTTL)
	exportSvc := service.NewExportService(observationRepo, logr, cfg.Exports.Enabled, cfg.Exports.MaxRows)

	authHandler := handler.NewAuthHandler(authSvc)
	clientHandler := handler.NewClientHandler(clientSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	targetHandler := handler.NewTargetHandler(targetSvc, exportSvc)
	observationHandler := handler.NewObservationHandler(targetSvc, observationSvc)
	graphHandler := handler.NewGraphHandler(targetSvc, graphSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	api.GET("/system/status", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Status)

	clients := api.Group("/clients", middleware.JWT(authSvc))
	{
		clients.GET("", clientHandler.List)
		clients.POST("", clientHandler.Create)

		client := clients.Group("/:client_id")
		{
			read := middleware.ClientAccess(clientSvc, false)
			edit := middleware.ClientAccess(clientSvc, true)

			client.GET("", read, clientHandler.Get)
			client.PUT("", edit, clientHandler.Update)
			client.DELETE("", read, clientHandler.Delete)

			client.GET("/members", read, clientHandler.Members)
			client.POST("/members", edit, clientHandler.AddMember)
			client.PUT("/members/:user_id", edit, clientHandler.UpdateMember)
			client.DELETE("/members/:user_id", read, clientHandler.RemoveMember)

			programs := client.Group("/programs")
			{
				programs.GET("", read, programHandler.List)
				programs.POST("", edit, programHandler.Create)

				program := programs.Group("/:program_id")
				{
					program.GET("", read, programHandler.Get)
					program.PUT("", edit, programHandler.Update)
					program.DELETE("", edit, programHandler.Delete)

					targets := program.Group("/targets", middleware.ProgramScope(programSvc))
					{
						targets.GET("", read, targetHandler.List)
						targets.POST("", edit, targetHandler.Create)

						target := targets.Group("/:target_id")
						{
							target.GET("", read, targetHandler.Get)
							target.PUT("", edit, targetHandler.Update)
							target.DELETE("", edit, targetHandler.Delete)
							target.GET("/summary", read, targetHandler.Summary)
							target.GET("/export", read, targetHandler.Export)
							target.GET("/graph", read, graphHandler.Get)

							target.GET("/observations", read, observationHandler.List)
							target.POST("/observations", edit, observationHandler.Create)
							target.PATCH("/observations", edit, observationHandler.Adjust)
							target.PUT("/observations/:observation_id", edit, observationHandler.Update)
							target.DELETE("/observations/:observation_id", edit, observationHandler.Delete)
						}
					}
				}
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
