package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret         string `json:"jwt_secret"`
	OAuthClientID     string `json:"oauth_client_id"`
	OAuthClientSecret string `json:"oauth_client_secret"`
	TokenTTLHours     int    `json:"token_ttl_hours"`

	// Recipe rules
	CookingTimeMin int `json:"cooking_time_min"`
	CookingTimeMax int `json:"cooking_time_max"`
	PageSize       int `json:"page_size"`

	// Media storage
	MediaBackend string `json:"media_backend"`
	MediaRoot    string `json:"media_root"`
	MediaURL     string `json:"media_url"`
	S3Bucket     string `json:"s3_bucket"`
	S3Region     string `json:"s3_region"`
	S3AccessKey  string `json:"s3_access_key"`
	S3SecretKey  string `json:"s3_secret_key"`
	S3Endpoint   string `json:"s3_endpoint"`
	S3PublicURL  string `json:"s3_public_url"`

	// Cache
	RedisURL           string `json:"redis_url"`
	TagCacheTTLSeconds int    `json:"tag_cache_ttl_seconds"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DBDriver: %s, DBPath: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], "+
		"LogLevel: %s, JWTSecret: [REDACTED], OAuthClientID: %s, OAuthClientSecret: [REDACTED], CookingTime: %d..%d, "+
		"MediaBackend: %s, S3Bucket: %s, S3SecretKey: [REDACTED], RedisURL: %s}",
		c.Port, c.Host, c.DBDriver, c.DBPath, c.DBHost, c.DBName, c.DBUser,
		c.LogLevel, c.OAuthClientID, c.CookingTimeMin, c.CookingTimeMax,
		c.MediaBackend, c.S3Bucket, maskRedisURL(c.RedisURL))
}

// maskRedisURL masks the password part of a redis:// URL
func maskRedisURL(redisURL string) string {
	at := strings.LastIndex(redisURL, "@")
	scheme := strings.Index(redisURL, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return redisURL
	}
	return redisURL[:scheme+3] + "[REDACTED]" + redisURL[at:]
}

// Database returns the connection settings for the database package
func (c *Config) Database() database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any environment variable is malformed or the combination is inconsistent
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" && driver != "postgresql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres)", driver)
	}

	config := &Config{
		Port:               port,
		Host:               GetEnvWithDefault("APP_HOST", "localhost"),
		CORSOrigins:        splitList(GetEnvWithDefault("CORS_ORIGINS", "")),
		DBDriver:           driver,
		DBPath:             GetEnvWithDefault("DB_PATH", "recipes.sqlite"),
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBName:             GetEnvWithDefault("DB_NAME", "recipes"),
		DBUser:             GetEnvWithDefault("DB_USER", "user"),
		DBPassword:         GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", "secret"),
		OAuthClientID:      GetEnvWithDefault("OAUTH_CLIENT_ID", "web"),
		OAuthClientSecret:  GetEnvWithDefault("OAUTH_CLIENT_SECRET", "web-secret"),
		TokenTTLHours:      GetEnvAsType("TOKEN_TTL_HOURS", 24),
		CookingTimeMin:     GetEnvAsType("COOKING_TIME_MIN", 1),
		CookingTimeMax:     GetEnvAsType("COOKING_TIME_MAX", 600),
		PageSize:           GetEnvAsType("PAGE_SIZE", 6),
		MediaBackend:       strings.ToLower(GetEnvWithDefault("MEDIA_BACKEND", "local")),
		MediaRoot:          GetEnvWithDefault("MEDIA_ROOT", "media"),
		MediaURL:           GetEnvWithDefault("MEDIA_URL", "/media"),
		S3Bucket:           GetEnvWithDefault("S3_BUCKET", ""),
		S3Region:           GetEnvWithDefault("S3_REGION", "us-east-1"),
		S3AccessKey:        GetEnvWithDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:        GetEnvWithDefault("S3_SECRET_KEY", ""),
		S3Endpoint:         GetEnvWithDefault("S3_ENDPOINT", ""),
		S3PublicURL:        GetEnvWithDefault("S3_PUBLIC_URL", ""),
		RedisURL:           GetEnvWithDefault("REDIS_URL", ""),
		TagCacheTTLSeconds: GetEnvAsType("TAG_CACHE_TTL_SECONDS", 300),
	}

	if config.CookingTimeMin < 1 {
		return nil, fmt.Errorf("COOKING_TIME_MIN must be at least 1, got %d", config.CookingTimeMin)
	}
	if config.CookingTimeMax < config.CookingTimeMin {
		return nil, fmt.Errorf("COOKING_TIME_MAX (%d) must not be lower than COOKING_TIME_MIN (%d)",
			config.CookingTimeMax, config.CookingTimeMin)
	}
	if config.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", config.PageSize)
	}
	switch config.MediaBackend {
	case "local":
	case "s3":
		if config.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND is s3")
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q (supported: local, s3)", config.MediaBackend)
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			log.Warnf("Environment variable %s is not an integer, using default value", key)
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			log.Warnf("Environment variable %s is not a boolean, using default value", key)
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
