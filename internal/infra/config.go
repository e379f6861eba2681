package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	StorageBackend string
	StorageBaseURL string
	StorageDir     string

	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2UseSSL          bool

	GeoIPDBPath string

	DefaultProvider string
	BasePrompt      string

	IdeogramAPIKey   string
	IdeogramEnabled  bool
	IdeogramPriority int

	FalAPIKey   string
	FalModel    string
	FalEnabled  bool
	FalPriority int

	HuggingFaceAPIKey   string
	HuggingFaceModel    string
	HuggingFaceEnabled  bool
	HuggingFacePriority int

	StabilityAPIKey   string
	StabilityEnabled  bool
	StabilityPriority int

	SignedURLExpiry  time.Duration
	URLCacheTTL      time.Duration
	URLCacheSweep    time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "filesystem")),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		StorageDir:     getEnv("STORAGE_DIR", "./data/storage"),

		R2Endpoint:        os.Getenv("R2_ENDPOINT"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:          getEnv("R2_BUCKET", "flyers"),
		R2UseSSL:          getEnvBool("R2_USE_SSL", true),

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		DefaultProvider: strings.ToLower(os.Getenv("DEFAULT_PROVIDER")),
		BasePrompt:      os.Getenv("BASE_PROMPT"),

		IdeogramAPIKey:   os.Getenv("IDEOGRAM_API_KEY"),
		IdeogramEnabled:  getEnvBool("IDEOGRAM_ENABLED", true),
		IdeogramPriority: getEnvInt("IDEOGRAM_PRIORITY", 0),

		FalAPIKey:   os.Getenv("FAL_API_KEY"),
		FalModel:    os.Getenv("FAL_MODEL"),
		FalEnabled:  getEnvBool("FAL_ENABLED", true),
		FalPriority: getEnvInt("FAL_PRIORITY", 0),

		HuggingFaceAPIKey:   os.Getenv("HUGGINGFACE_API_KEY"),
		HuggingFaceModel:    os.Getenv("HUGGINGFACE_MODEL"),
		HuggingFaceEnabled:  getEnvBool("HUGGINGFACE_ENABLED", true),
		HuggingFacePriority: getEnvInt("HUGGINGFACE_PRIORITY", 0),

		StabilityAPIKey:   os.Getenv("STABILITY_API_KEY"),
		StabilityEnabled:  getEnvBool("STABILITY_ENABLED", true),
		StabilityPriority: getEnvInt("STABILITY_PRIORITY", 0),

		SignedURLExpiry:  time.Second * time.Duration(getEnvInt("SIGNED_URL_EXPIRY_SECONDS", 3600)),
		URLCacheTTL:      time.Second * time.Duration(getEnvInt("URL_CACHE_TTL_SECONDS", 3000)),
		URLCacheSweep:    time.Second * time.Duration(getEnvInt("URL_CACHE_SWEEP_SECONDS", 300)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.StorageBackend {
	case "filesystem", "r2":
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be filesystem or r2, got %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "r2" {
		if cfg.R2Endpoint == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_ENDPOINT, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required for the r2 backend")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
