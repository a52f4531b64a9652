package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool
	MinioPublicURL string

	RedisHost string
	RedisPort string

	ClerkSecretKey     string
	ClerkWebhookSecret string

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnalysisCacheTTL time.Duration
	// Optional disk tier for analysis results
	AnalysisCacheDir string

	PublicBaseURL string

	// Upload and image encoding limits
	UploadMaxBytes    int64
	ImportMaxBytes    int64
	ImportMaxFiles    int
	ImageMaxBytes     int64
	ImageMaxPixels    int64
	ImageMaxDimension int
	ImageMinDimension int

	TypstBinary string

	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables.
// Missing credentials are not an error: the matching feature is reported as
// unconfigured and its routes answer accordingly. Malformed values are errors.
func LoadConfig() (*Config, error) {
	minioSSL, err := envBool("MINIO_SSL", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("ANALYSIS_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	uploadMax, err := envInt64("UPLOAD_MAX_BYTES", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	importMax, err := envInt64("IMPORT_MAX_BYTES", 100*1024*1024)
	if err != nil {
		return nil, err
	}
	importFiles, err := envInt64("IMPORT_MAX_FILES", 200)
	if err != nil {
		return nil, err
	}
	imageMaxBytes, err := envInt64("IMAGE_MAX_BYTES", 5*1024*1024/2)
	if err != nil {
		return nil, err
	}
	maxPixels, err := envInt64("IMAGE_MAX_PIXELS", 50_000_000)
	if err != nil {
		return nil, err
	}
	if maxPixels <= 0 {
		return nil, fmt.Errorf("invalid IMAGE_MAX_PIXELS value: %d", maxPixels)
	}
	maxDim, err := envInt64("IMAGE_MAX_DIMENSION", 1600)
	if err != nil {
		return nil, err
	}
	minDim, err := envInt64("IMAGE_MIN_DIMENSION", 600)
	if err != nil {
		return nil, err
	}
	if minDim <= 0 || maxDim < minDim {
		return nil, fmt.Errorf("invalid image dimensions: min=%d max=%d", minDim, maxDim)
	}

	cfg := &Config{
		AppPort: envString("APP_PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      envString("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   envString("DB_SSLMODE", "disable"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envString("MINIO_BUCKET", "screenshots"),
		MinioSSL:       minioSSL,
		MinioPublicURL: strings.TrimRight(os.Getenv("MINIO_PUBLIC_URL"), "/"),

		RedisHost: os.Getenv("REDIS_HOST"),
		RedisPort: envString("REDIS_PORT", "6379"),

		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envString("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		AnalysisCacheTTL: cacheTTL,
		AnalysisCacheDir: os.Getenv("ANALYSIS_CACHE_DIR"),

		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),

		UploadMaxBytes:    uploadMax,
		ImportMaxBytes:    importMax,
		ImportMaxFiles:    int(importFiles),
		ImageMaxBytes:     imageMaxBytes,
		ImageMaxPixels:    maxPixels,
		ImageMaxDimension: int(maxDim),
		ImageMinDimension: int(minDim),

		TypstBinary: envString("TYPST_BIN", "typst"),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),
	}
	return cfg, nil
}

// DatabaseConfigured reports whether enough settings exist to open the store.
func (c *Config) DatabaseConfigured() bool {
	return c.DatabaseURL != "" || (c.DBHost != "" && c.DBUser != "" && c.DBName != "")
}

func (c *Config) StorageConfigured() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != "" && c.MinioBucket != ""
}

func (c *Config) RedisConfigured() bool {
	return c.RedisHost != ""
}

func (c *Config) ClerkConfigured() bool {
	return c.ClerkSecretKey != ""
}

func (c *Config) WebhookConfigured() bool {
	return c.ClerkWebhookSecret != ""
}

func (c *Config) OpenAIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	if !cfg.DatabaseConfigured() {
		return nil, fmt.Errorf("database configuration is incomplete")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}

func envInt64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}
