package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins string
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy  bool

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// YouTube Data API
	YouTubeAPIKey      string
	CatalogEndpoint    string
	CatalogTimeout     time.Duration
	CatalogMaxRetries  int
	CatalogConcurrency int

	// Storage
	StorageType      string
	StoragePath      string
	StoragePublicURL string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string

	// Rate limiting for /users auth endpoints
	AuthRequestsPerMinute int
	AuthBurst             int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigins:           getEnvOrDefault("CORS_ORIGIN", "*"),
		TrustProxy:            getEnvAsBoolOrDefault("TRUST_PROXY", false),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		MigrationsDir:         getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		AccessTokenExpiry:     getEnvAsDurationOrDefault("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry:    getEnvAsDurationOrDefault("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		YouTubeAPIKey:         mustGetEnv("YOUTUBE_DATA_API_KEY"),
		CatalogEndpoint:       getEnvOrDefault("YOUTUBE_API_ENDPOINT", ""),
		CatalogTimeout:        getEnvAsDurationOrDefault("CATALOG_TIMEOUT", 30*time.Second),
		CatalogMaxRetries:     getEnvAsIntOrDefault("CATALOG_MAX_RETRIES", 3),
		CatalogConcurrency:    getEnvAsIntOrDefault("CATALOG_CONCURRENCY", 4),
		StorageType:           strings.ToLower(getEnvOrDefault("STORAGE_TYPE", "local")),
		StoragePath:           getEnvOrDefault("STORAGE_PATH", "./uploads"),
		StoragePublicURL:      getEnvOrDefault("STORAGE_PUBLIC_URL", "/uploads"),
		S3Bucket:              getEnvOrDefault("S3_BUCKET", ""),
		S3Region:              getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:            getEnvOrDefault("S3_ENDPOINT", ""),
		AuthRequestsPerMinute: getEnvAsIntOrDefault("AUTH_REQUESTS_PER_MINUTE", 10),
		AuthBurst:             getEnvAsIntOrDefault("AUTH_BURST", 5),
	}

	return cfg
}

// Validate checks combinations that individual getters cannot.
func (c *Config) Validate() error {
	switch c.StorageType {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.StorageType)
	}
	if c.CatalogConcurrency < 1 {
		return fmt.Errorf("CATALOG_CONCURRENCY must be at least 1")
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
