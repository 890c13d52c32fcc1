package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendAzure  = "azure"
	BackendGCS    = "gcs"
	BackendMemory = "memory"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds everything the server needs at startup. It is built once
// in main and handed to the constructors that need it.
type Config struct {
	Port           int
	DatabaseDriver string
	DatabaseURL    string
	DBLogLevel     string

	BlobBackend           string
	BlobContainer         string
	AzureConnectionString string
	GCSProjectID          string
	PublicBaseURL         string

	MaxUploadBytes int
	LogLevel       string
	LogFormat      string
	CookieSecure   bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT must be a positive integer")
	}
	cfg.Port = port

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(getEnv("DATABASE_DRIVER", DriverPostgres)))
	if cfg.DatabaseDriver != DriverPostgres && cfg.DatabaseDriver != DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER %q not supported", cfg.DatabaseDriver)
	}

	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", ""))
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	cfg.DBLogLevel = strings.ToLower(getEnv("DB_LOG_LEVEL", "warn"))

	cfg.BlobBackend = strings.ToLower(strings.TrimSpace(getEnv("BLOB_BACKEND", BackendAzure)))
	cfg.BlobContainer = strings.TrimSpace(getEnv("BLOB_CONTAINER", "answerimages"))
	if cfg.BlobContainer == "" {
		return nil, errors.New("BLOB_CONTAINER must not be empty")
	}

	switch cfg.BlobBackend {
	case BackendAzure:
		cfg.AzureConnectionString = strings.TrimSpace(getEnv("AZURE_STORAGE_CONNECTION_STRING", ""))
		if cfg.AzureConnectionString == "" {
			return nil, errors.New("AZURE_STORAGE_CONNECTION_STRING not set")
		}
	case BackendGCS:
		cfg.GCSProjectID = strings.TrimSpace(getEnv("GSC_PROJECT_ID", ""))
		if cfg.GCSProjectID == "" {
			return nil, errors.New("GSC_PROJECT_ID not set")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("BLOB_BACKEND %q not supported", cfg.BlobBackend)
	}

	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	maxUpload, err := strconv.Atoi(getEnv("MAX_UPLOAD_BYTES", "10485760"))
	if err != nil || maxUpload <= 0 {
		return nil, errors.New("MAX_UPLOAD_BYTES must be a positive integer")
	}
	cfg.MaxUploadBytes = maxUpload

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "console"))

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, errors.New("COOKIE_SECURE must be a boolean")
	}
	cfg.CookieSecure = secure

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return def
}
