package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Port              string
	Env               string
	LogLevel          string
	StoreBackend      string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool
	PostgresUrl       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisKeyPrefix    string
	FloorFollowCount  bool
}

// Load reads configuration from the environment, loading .env first if present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017/"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "following_system"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", false),
		PostgresUrl:       getEnv("POSTGRES_URL", "postgres://localhost:5432/following_system?sslmode=disable"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", "follow:"),
		FloorFollowCount:  getEnvBool("FOLLOW_COUNT_FLOOR", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		slog.Warn("Invalid boolean in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return n
}
