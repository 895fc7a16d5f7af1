package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"pressgrid-backend/content-service/handlers"
	"pressgrid-backend/content-service/middleware"
	"pressgrid-backend/content-service/services"
	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/database"
	"pressgrid-backend/shared/utils/apikey"
	"pressgrid-backend/shared/utils/authz"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"

	_ "pressgrid-backend/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title PressGrid Content API
// @version 1.0
// @description Internal dashboard API for the PressGrid content platform
// @host localhost:8001
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()
	db := database.GetDB()

	// Initialize Redis cache
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	cacheManager := cache.NewCacheManager(redisClient)
	defer cacheManager.Close()
	invalidator := cache.NewInvalidator(cacheManager)

	// Authorization engine backed by the database
	store := authz.NewGormStore(db)
	engine := authz.NewEngine(store, store)

	// API key store with cached organization snapshots
	keyStore := apikey.NewStore(db, cacheManager, invalidator)

	// Usage store for quota reporting
	usageStore := metering.NewGormUsageStore(db)

	// Quota alert hub (WebSocket fan-out of Redis pub/sub alerts)
	hub := services.NewAlertHub(cacheManager)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// MinIO-backed media storage
	mediaService, err := services.NewMediaService()
	if err != nil {
		log.Fatalf("Failed to initialize media service: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db)
	postHandler := handlers.NewPostHandler(db, engine, invalidator)
	categoryHandler := handlers.NewCategoryHandler(db, engine, invalidator)
	commentHandler := handlers.NewCommentHandler(db, engine, invalidator)
	memberHandler := handlers.NewMemberHandler(db, engine)
	orgHandler := handlers.NewOrganizationHandler(db, engine, invalidator, usageStore, cfg.GetUsageSoftLimitPercent())
	apiKeyHandler := handlers.NewAPIKeyHandler(db, engine, keyStore)
	mediaHandler := handlers.NewMediaHandler(db, engine, invalidator, mediaService)
	opsHandler := handlers.NewOpsHandler(db, engine, hub)

	// Initialize rate limiter for login attempts
	rateLimiter := middleware.NewRateLimiter(30 * time.Minute)
	loginConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetLoginRateLimitMaxAttempts(),
		TimeWindow:    time.Duration(cfg.GetLoginRateLimitWindowSeconds()) * time.Second,
		BlockDuration: time.Duration(cfg.GetLoginRateLimitBlockMinutes()) * time.Minute,
	}

	router := gin.Default()

	// CORS for the dashboard frontend
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Auth endpoints
	router.POST("/api/auth/login", rateLimiter.LoginRateLimitMiddleware(loginConfig), authHandler.Login)
	router.POST("/api/auth/refresh", authHandler.Refresh)
	router.GET("/api/auth/me", middleware.AuthMiddleware(), authHandler.Me)

	// Protected dashboard endpoints
	api := router.Group("/api", middleware.AuthMiddleware())

	// Post routes
	api.GET("/posts", postHandler.GetPosts)
	api.GET("/posts/:id", postHandler.GetPost)
	api.POST("/posts", postHandler.CreatePost)
	api.PUT("/posts/:id", postHandler.UpdatePost)
	api.DELETE("/posts/:id", postHandler.DeletePost)

	// Post cover media routes
	api.POST("/posts/:id/cover", mediaHandler.UploadCover)
	api.DELETE("/posts/:id/cover", mediaHandler.DeleteCover)

	// Category routes
	api.GET("/categories", categoryHandler.GetCategories)
	api.POST("/categories", categoryHandler.CreateCategory)
	api.PUT("/categories/:id", categoryHandler.UpdateCategory)
	api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	// Comment moderation routes
	api.GET("/posts/:id/comments", commentHandler.GetPostComments)
	api.PUT("/comments/:id/hide", commentHandler.HideComment)
	api.DELETE("/comments/:id", commentHandler.DeleteComment)

	// Member management routes
	api.GET("/members", memberHandler.GetMembers)
	api.POST("/members", memberHandler.CreateMember)
	api.PUT("/members/:id/role", memberHandler.UpdateMemberRole)
	api.DELETE("/members/:id", memberHandler.RemoveMember)

	// Organization settings routes
	api.GET("/organization", orgHandler.GetOrganization)
	api.GET("/organization/usage", orgHandler.GetUsage)
	api.PUT("/organization", orgHandler.UpdateOrganization)
	api.GET("/organization/api-key", apiKeyHandler.GetAPIKey)
	api.POST("/organization/api-key/rotate", apiKeyHandler.RotateAPIKey)
	api.DELETE("/organization/api-key", apiKeyHandler.RevokeAPIKey)

	// Ops alert stream (WebSocket)
	api.GET("/ops/alerts", opsHandler.StreamAlerts)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "content",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Parse port from config URL
	port := strings.Split(cfg.ContentServiceURL, ":")[2]
	log.Printf("Content Service starting on port %s...", port)
	router.Run(":" + port)
}
