package main

import (
	"merchcrm/internal/config"
	"merchcrm/internal/database"
	"merchcrm/internal/errlog"
	"merchcrm/internal/handler"
	"merchcrm/internal/middleware"
	"merchcrm/internal/repository"
	"merchcrm/internal/service"
	"merchcrm/internal/websocket"
	"merchcrm/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           MerchCRM API
// @version         1.0
// @description     Administrative backend for a merchandise business: staff, roles, departments, audit, inventory and finance.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Get().Info("no configs/.env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Get().WithError(err).Fatal("configuration failed")
	}

	if err := logger.Initialize(logger.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFilePath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	}); err != nil {
		logger.Get().WithError(err).Fatal("logger setup failed")
	}

	gin.SetMode(cfg.GinMode)
	release := cfg.GinMode == gin.ReleaseMode

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		logger.Get().WithError(err).Fatal("database connection failed")
	}
	logger.Get().Info("connected to PostgreSQL")

	if err := database.Seed(db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		logger.Get().WithError(err).Fatal("database seeding failed")
	}

	middleware.Init([]byte(cfg.JWTSecret), db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	securityRepo := repository.NewSecurityRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	financeRepo := repository.NewFinanceRepository(db)

	recorder := errlog.NewRecorder(securityRepo)

	authService := service.NewAuthService(userRepo, securityRepo, recorder, []byte(cfg.JWTSecret))
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, securityRepo, txManager, recorder)
	roleService := service.NewRoleService(roleRepo, userRepo, auditRepo, securityRepo, txManager, recorder)
	departmentService := service.NewDepartmentService(departmentRepo, roleRepo, userRepo, auditRepo, securityRepo, txManager, recorder)
	auditService := service.NewAuditService(auditRepo, securityRepo, txManager, recorder)
	settingsService := service.NewSettingsService(settingsRepo, auditRepo, securityRepo, txManager, recorder)
	inventoryService := service.NewInventoryService(inventoryRepo, auditRepo, txManager, wsHub, recorder)
	financeService := service.NewFinanceService(financeRepo, auditRepo, txManager, recorder)

	authHandler := handler.NewAuthHandler(authService, release)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	auditHandler := handler.NewAuditHandler(auditService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	financeHandler := handler.NewFinanceHandler(financeService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.JWTSecret())
	})

	// API routing
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	departmentHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)
	inventoryHandler.RegisterRoutes(api)
	financeHandler.RegisterRoutes(api)

	logger.Get().WithField("port", cfg.Port).Info("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Get().WithError(err).Fatal("server failed")
	}
}
