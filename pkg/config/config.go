package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Env             string
	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	Moderation      ModerationConfig
	Queue           QueueConfig
}

// ModerationConfig holds the classifier and purge settings.
type ModerationConfig struct {
	Endpoint           string
	ServiceKeyJSON     string // service-account key embedded in the environment
	ServiceAccountFile string // on-disk service-account key, local development
	APIKey             string // deprecated by Google, last resort
	FlagThreshold      float64
	Timeout            time.Duration
	PurgeDelay         time.Duration
}

// QueueConfig holds the background task queue settings.
type QueueConfig struct {
	Workers     int
	PollSpec    string
	BatchSize   int
	MaxAttempts int
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "pressmod"),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretjwtkey"),
		Moderation: ModerationConfig{
			Endpoint:           getEnv("MODERATION_ENDPOINT", "https://language.googleapis.com/v1/documents:moderateText"),
			ServiceKeyJSON:     getEnv("SERVICE_KEY_JSON", ""),
			ServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
			APIKey:             getEnv("GOOGLE_CLOUD_API", ""),
			FlagThreshold:      getEnvFloat("MODERATION_FLAG_THRESHOLD", 0.6),
			Timeout:            getEnvDuration("MODERATION_TIMEOUT", 10*time.Second),
			PurgeDelay:         getEnvDuration("PURGE_GRACE_PERIOD", 20*24*time.Hour),
		},
		Queue: QueueConfig{
			Workers:     getEnvInt("QUEUE_WORKERS", 4),
			PollSpec:    getEnv("QUEUE_POLL_SPEC", "@every 2s"),
			BatchSize:   getEnvInt("QUEUE_BATCH_SIZE", 20),
			MaxAttempts: getEnvInt("QUEUE_MAX_ATTEMPTS", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
