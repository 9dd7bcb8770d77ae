package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv       string
	Port          string
	JWTSecret     string
	PublicBaseURL string
	ConsoleURL    string
	StoreDriver   string // "gorm" or "memory"
	Database      DatabaseConfig
	Storage       StorageConfig
	Events        EventsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	DataPath string // embedded server data directory
	Quiet    bool
}

// StorageConfig selects where evidence files live
type StorageConfig struct {
	Driver      string // "local" or "s3"
	UploadDir   string
	S3Bucket    string
	S3Prefix    string
	S3PathStyle bool
}

// EventsConfig configures the lifecycle event stream
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		NodeEnv:       getEnv("NODE_ENV", "development"),
		Port:          getEnv("PORT", "3005"),
		JWTSecret:     jwtSecret,
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3005"), "/"),
		ConsoleURL:    strings.TrimRight(getEnv("CONSOLE_URL", "http://localhost:3000"), "/"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "gorm")),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "sisifo"),
			DataPath: getEnv("PG_DATA_PATH", "./db_data"),
			Quiet:    getEnv("DB_QUIET", "false") == "true",
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Prefix:    getEnv("S3_PREFIX", "evidencias"),
			S3PathStyle: getEnv("S3_PATH_STYLE", "false") == "true",
		},
		Events: EventsConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "sisifo.partes"),
		},
	}

	if cfg.StoreDriver != "gorm" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}

	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
