package main

import (
	"context"
	"log"

	_ "aegisciso/api/swagger" // swagger docs
	"aegisciso/internal/aiproxy"
	"aegisciso/internal/config"
	"aegisciso/internal/database"
	"aegisciso/internal/handler"
	"aegisciso/internal/middleware"
	"aegisciso/internal/repository"
	"aegisciso/internal/service"
	"aegisciso/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           AegisCISO GRC API
// @version         1.0
// @description     Sovereign GRC platform API: risk register, policy lifecycle, strategy objectives, posture scoring and local AI proxying.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	txManager := repository.NewTransactionManager(db)

	roleService := service.NewRoleService(db)
	authService := service.NewAuthService(userRepo, refreshRepo, auditRepo, wsHub, cfg)
	userService := service.NewUserService(userRepo, roleService, auditRepo)
	riskService := service.NewRiskService(riskRepo, auditRepo, txManager, wsHub)
	policyService := service.NewPolicyService(policyRepo, auditRepo, txManager, wsHub)
	objectiveService := service.NewObjectiveService(objectiveRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)
	postureService := service.NewPostureService(db)
	aiClient := aiproxy.New(cfg.SovereignAIURL, cfg.AITimeout, cfg.DemoMode)

	// Seed the role/permission matrix and, in demo mode, the demo accounts
	ctx := context.Background()
	if err := roleService.SeedDefaults(ctx); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}
	if cfg.DemoMode {
		if err := roleService.SeedDemoUsers(ctx); err != nil {
			log.Printf("WARNING: failed to seed demo users: %v", err)
		}
	}

	authMw := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.ReleaseMode)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, authMw)
	userHandler := handler.NewUserHandler(userService, authMw)
	roleHandler := handler.NewRoleHandler(roleService, authMw)
	riskHandler := handler.NewRiskHandler(riskService, authMw)
	policyHandler := handler.NewPolicyHandler(policyService, authMw)
	objectiveHandler := handler.NewObjectiveHandler(objectiveService, authMw)
	auditHandler := handler.NewAuditHandler(auditService, authMw)
	postureHandler := handler.NewPostureHandler(postureService, authMw)
	aiHandler := handler.NewAIHandler(aiClient, authMw)

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
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group("/api/auth"))

	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	riskHandler.RegisterRoutes(api)
	policyHandler.RegisterRoutes(api)
	objectiveHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	postureHandler.RegisterRoutes(api)
	aiHandler.RegisterRoutes(api)

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
