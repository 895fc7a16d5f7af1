package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"pressgrid-backend/public-api/handlers"
	"pressgrid-backend/public-api/middleware"
	"pressgrid-backend/shared/config"
	"pressgrid-backend/shared/database"
	"pressgrid-backend/shared/utils/alerts"
	"pressgrid-backend/shared/utils/apikey"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"

	_ "pressgrid-backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title PressGrid Public API
// @version 1.0
// @description Metered, API-key authenticated read API for PressGrid content
// @host localhost:8002
// @BasePath /

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the organization API key.

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

	// Metering gateway collaborators
	keyStore := apikey.NewStore(db, cacheManager, invalidator)
	usageStore := metering.NewGormUsageStore(db)
	alertPublisher := alerts.NewPublisher(cacheManager)
	gateway := metering.NewGateway(keyStore, usageStore, cfg.GetUsageSoftLimitPercent(), alertPublisher)

	// Burst rate limiter, independent of the monthly quota
	rateLimiter := middleware.NewRateLimiter(5 * time.Minute)
	burstConfig := middleware.NewRateLimitConfig()

	// Initialize handlers
	postHandler := handlers.NewPostHandler(db, cacheManager)
	categoryHandler := handlers.NewCategoryHandler(db, cacheManager)

	router := gin.Default()

	// Metered public routes
	v1 := router.Group("/v1",
		rateLimiter.BurstRateLimitMiddleware(burstConfig),
		gateway.Middleware())

	v1.GET("/posts", postHandler.GetPosts)
	v1.GET("/posts/featured", postHandler.GetFeaturedPosts)
	v1.GET("/posts/:slug", postHandler.GetPost)
	v1.GET("/posts/:slug/comments", postHandler.GetPostComments)
	v1.GET("/categories", categoryHandler.GetCategories)
	v1.GET("/categories/:slug", categoryHandler.GetCategory)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "public-api",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Parse port from config URL
	port := strings.Split(cfg.PublicAPIURL, ":")[2]
	log.Printf("Public API starting on port %s...", port)
	router.Run(":" + port)
}
