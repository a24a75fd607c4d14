package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBodySize = 16 << 10 // largest accepted payload is a small JSON object

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"SOS_COLLECTION",
		"BROADCASTS_COLLECTION",
		"USERS_COLLECTION",
		"JWT_SECRET_KEY",
		"USER_JWT_SECRET",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	// The desk needs a credential source: either the operator directory
	// collection or the shared bootstrap credential.
	if os.Getenv("HELPDESK_OPERATORS_COLLECTION") == "" && os.Getenv("GO_ENV") != "test" {
		if os.Getenv("HELPDESK_USERNAME") == "" {
			log.Fatal("HELPDESK_USERNAME must be set when no operator collection is configured")
		}
		if os.Getenv("HELPDESK_PASSWORD") == "" && os.Getenv("HELPDESK_PASSWORD_HASH") == "" {
			log.Fatal("Either HELPDESK_PASSWORD or HELPDESK_PASSWORD_HASH must be set")
		}
	}

	utils.InitJWT()
	utils.InitValidator()
	services.InitIdentity()
	utils.InitMongoClient(config.LoadDatabaseConfig().ClientOptions())
}

func setupRouter() *gin.Engine {
	router := gin.New()

	sessionRepo := repository.GetSessionRepo(utils.MongoClient)
	broadcastRepo := repository.GetBroadcastRepo(utils.MongoClient)
	usersRepo := repository.GetUsersRepo(utils.MongoClient)

	var operatorsRepo usecase.OperatorStore
	if os.Getenv("HELPDESK_OPERATORS_COLLECTION") != "" {
		operatorsRepo = repository.GetOperatorsRepo(utils.MongoClient)
	}

	staleThreshold := utils.GetEnvAsDuration("SOS_STALE_THRESHOLD", usecase.DefaultStaleThreshold)

	sosService := &usecase.SOSService{
		Sessions:       sessionRepo,
		Profiles:       usersRepo,
		StaleThreshold: staleThreshold,
	}
	helpdeskService := &usecase.HelpdeskService{
		Sessions:       sessionRepo,
		Broadcasts:     broadcastRepo,
		Profiles:       usersRepo,
		StaleThreshold: staleThreshold,
	}

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(maxRequestBodySize))

	router.GET("/health", handler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public tracker: the share token is the only authorization factor.
	router.GET("/track/:sessionID", middleware.NoStoreMiddleware(), func(c *gin.Context) {
		handler.TrackHandler(c, sosService)
	})

	// Helpdesk login is the one public helpdesk route.
	router.POST("/helpdesk/login", func(c *gin.Context) {
		handler.HelpdeskLoginHandler(c, operatorsRepo)
	})

	// End-user surface
	user := router.Group("/")
	user.Use(middleware.AuthMiddleware())
	{
		user.POST("/activate", func(c *gin.Context) {
			handler.ActivateHandler(c, sosService)
		})
		user.PATCH("/location", func(c *gin.Context) {
			handler.UpdateLocationHandler(c, sosService)
		})
		user.DELETE("/deactivate", func(c *gin.Context) {
			handler.DeactivateHandler(c, sosService)
		})
		user.GET("/session", func(c *gin.Context) {
			handler.GetOwnSessionHandler(c, sosService)
		})
		user.GET("/broadcasts", func(c *gin.Context) {
			handler.ListBroadcastsHandler(c, helpdeskService)
		})
	}

	// Response-desk surface
	helpdesk := router.Group("/helpdesk")
	helpdesk.Use(middleware.HelpdeskAuthMiddleware())
	{
		helpdesk.GET("/sessions", func(c *gin.Context) {
			handler.ListHelpdeskSessionsHandler(c, helpdeskService)
		})
		helpdesk.GET("/regions", func(c *gin.Context) {
			handler.ListHelpdeskRegionsHandler(c, helpdeskService)
		})
		helpdesk.POST("/broadcast", func(c *gin.Context) {
			handler.PublishBroadcastHandler(c, helpdeskService)
		})
		helpdesk.GET("/broadcasts", func(c *gin.Context) {
			handler.ListHelpdeskBroadcastsHandler(c, helpdeskService)
		})
	}

	return router
}

func main() {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cacheTTL := utils.GetEnvAsDuration("TRACKER_CACHE_TTL", 10*time.Second)
		cache, err := services.NewTrackerCache(redisURL, cacheTTL)
		if err != nil {
			log.Printf("Tracker cache disabled: %v", err)
		} else {
			services.GlobalTrackerCache = cache
			log.Println("Tracker cache enabled")
		}
	}

	if err := repository.SetupIndexes(utils.MongoClient.Database(os.Getenv("MONGO_DB"))); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
