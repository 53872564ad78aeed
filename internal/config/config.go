package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	GoogleAPIKey string
	CacheBackend string
	CacheFile    string
	DatabaseURL  string
	WorkerCount  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
		CacheBackend: getEnv("CACHE_BACKEND", "json"),
		CacheFile:    getEnv("CACHE_FILE", "translation_cache.json"),
		DatabaseURL:  getEnv("DATABASE_URL", "postgres://localhost:5432/renpy_translator?sslmode=disable"),
		WorkerCount:  getEnvInt("WORKER_COUNT", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
