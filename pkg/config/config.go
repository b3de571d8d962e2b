package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory  = "memory"
	StoreBackend = "backend"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
	AuthNone     = "none"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreDriver     string
	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string

	AuthMode                string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	JWTSecret               string

	Media MediaConfig

	ReconcileInterval time.Duration
	SessionTreeCache  int

	// RateLimit is requests per second per actor on /api/v1, 0 disables it
	RateLimit float64
	RateBurst int
}

// MediaConfig points at an S3-compatible bucket. AccountID selects a
// Cloudflare R2 endpoint when Endpoint is empty.
type MediaConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// Enabled reports whether uploads are configured
func (m MediaConfig) Enabled() bool {
	return m.Bucket != "" && m.AccessKeyID != "" && m.SecretAccessKey != ""
}

// Load reads the configuration from the environment, after loading .env if
// one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:     getEnv("STORE_DRIVER", StoreMemory),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "threads"),

		AuthMode:                getEnv("AUTH_MODE", AuthNone),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),

		Media: MediaConfig{
			Bucket:          getEnv("MEDIA_BUCKET", ""),
			Region:          getEnv("MEDIA_REGION", "auto"),
			Endpoint:        getEnv("MEDIA_ENDPOINT", ""),
			AccountID:       getEnv("MEDIA_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("MEDIA_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("MEDIA_SECRET_ACCESS_KEY", ""),
			PublicURL:       getEnv("MEDIA_PUBLIC_URL", ""),
		},

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", 10*time.Minute),
		SessionTreeCache:  getInt("SESSION_TREE_CACHE", 64),

		RateLimit: getFloat("RATE_LIMIT", 20),
		RateBurst: getInt("RATE_BURST", 40),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		slog.Warn("invalid number, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return f
}
