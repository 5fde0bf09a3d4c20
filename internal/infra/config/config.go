package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env        string
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	LLMBaseURL     string
	LLMAPIKey      string
	MiniModel      string
	FullModel      string
	EmbeddingModel string

	TPMLimit         int
	RateLimitRPS     float64
	RateLimitBurst   int
	DedupCacheSize   int
	CategoryRefresh  int
	RetrieveParallel int
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "registry-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "registry_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "registry_password"),
		DBName:     getEnv("DB_NAME", "registry_db"),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:      getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		MiniModel:      getEnv("LLM_MINI_MODEL", "gpt-4o-mini"),
		FullModel:      getEnv("LLM_FULL_MODEL", "gpt-4o"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		TPMLimit:         getEnvInt("TPM_LIMIT", 30000),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
		DedupCacheSize:   getEnvInt("DEDUP_CACHE_SIZE", 1024),
		CategoryRefresh:  getEnvInt("CATEGORY_REFRESH_SECONDS", 300),
		RetrieveParallel: getEnvInt("RETRIEVE_MAX_PARALLEL", 4),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
