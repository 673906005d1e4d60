package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-recipe-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/cache"
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/controllers"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title Recipe API
// @version 1.0
// @description Recipe sharing backend: recipes, favorites, subscriptions and shopping lists
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration := loadConfig()

	ctx := context.Background()

	// Initialize database connection
	db := setupDatabase(ctx, configuration)

	images := setupImageStore(ctx, configuration)
	api := setupAPI(ctx, configuration, db, images)

	// Initialize Gin router
	router := setupRouter(configuration, api, images)

	// Start the server
	addr := fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)
	log.Infof("Starting server on %s", addr)
	checkPanicErr(router.Run(addr))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	if level, err := log.ParseLevel(config.GetEnvWithDefault("LOG_LEVEL", "")); err == nil {
		log.SetLevel(level)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database, migrates the schema and drops expired tokens
func setupDatabase(ctx context.Context, conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(conf.Database())
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))

	purged, err := auth.NewGormTokenStore(db).PurgeExpired(ctx, time.Now())
	if err != nil {
		log.WithError(err).Warn("Failed to purge expired tokens")
	} else if purged > 0 {
		log.WithField("count", purged).Info("Purged expired access tokens")
	}
	return db
}

// setupImageStore picks the local directory or the S3 bucket for recipe images
func setupImageStore(ctx context.Context, conf *config.Config) storage.ImageStore {
	if conf.MediaBackend == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    conf.S3Bucket,
			Region:    conf.S3Region,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			Endpoint:  conf.S3Endpoint,
			PublicURL: conf.S3PublicURL,
		})
		checkPanicErr(err)
		log.WithField("bucket", conf.S3Bucket).Info("Storing recipe images in S3")
		return store
	}
	log.WithField("root", conf.MediaRoot).Info("Storing recipe images on disk")
	return storage.NewLocalStore(conf.MediaRoot, conf.MediaURL)
}

// setupTagCache connects to redis when REDIS_URL is set. Without it tags are read from the database.
func setupTagCache(ctx context.Context, conf *config.Config) services.TagCache {
	if conf.RedisURL == "" {
		return nil
	}
	client, err := cache.Connect(ctx, conf.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, tag cache disabled")
		return nil
	}
	return cache.NewTagCache(client, time.Duration(conf.TagCacheTTLSeconds)*time.Second)
}

// setupAPI builds services and controllers and seeds the first-party OAuth client
func setupAPI(ctx context.Context, conf *config.Config, db *gorm.DB, images storage.ImageStore) *controllers.API {
	users := services.NewUserService(db)
	relations := services.NewRelationService(db)
	clients := services.NewClientService(db)
	recipes := services.NewRecipeService(db, images, services.RecipeRules{
		CookingTimeMin: conf.CookingTimeMin,
		CookingTimeMax: conf.CookingTimeMax,
	})

	checkPanicErr(clients.EnsureClient(ctx, conf.OAuthClientID, conf.OAuthClientSecret, "Web frontend"))

	oauth := auth.NewOAuthService(db, users, auth.Options{
		JWTSecret:           conf.JWTSecret,
		AccessTokenTTL:      time.Duration(conf.TokenTTLHours) * time.Hour,
		DefaultClientID:     conf.OAuthClientID,
		DefaultClientSecret: conf.OAuthClientSecret,
	})

	return &controllers.API{
		OAuth:     oauth,
		JWTSecret: []byte(conf.JWTSecret),
		Recipes: controllers.NewRecipeController(recipes, relations,
			services.NewShoppingListService(db), images, conf.PageSize),
		Users: controllers.NewUserController(users, relations, images, conf.PageSize),
		Catalogue: controllers.NewCatalogueController(
			services.NewTagService(db, setupTagCache(ctx, conf)),
			services.NewIngredientService(db)),
		Clients: controllers.NewClientController(clients),
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter(conf *config.Config, api *controllers.API, images storage.ImageStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.Metrics())
	router.Use(cors.New(corsConfig(conf.CORSOrigins)))

	// Health check endpoint
	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.RegisterRoutes(router)

	if local, ok := images.(*storage.LocalStore); ok {
		router.Static(conf.MediaURL, local.Root())
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

// corsConfig allows every origin unless CORS_ORIGINS lists them
func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return conf
	}
	conf.AllowOrigins = origins
	conf.AllowCredentials = true
	return conf
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-recipe-api",
	})
}
