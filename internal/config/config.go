package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Ai        AIConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AIConfig struct {
	EmbeddingProvider    string // "openai" or "ollama"
	LLMProvider          string // "openai" or "ollama"
	LLMModel             string // e.g. "gpt-4o-mini", "llama3"
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	SimilarityThreshold  float64
	TitleTopic           string // Async conversation title generation topic
}

type RateLimitConfig struct {
	Backend   string // "memory" or "redis"
	PerMinute int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "chat-files"),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "openai"),
			LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
			LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
			OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			SimilarityThreshold:  getEnvAsFloat("RAG_SIMILARITY_THRESHOLD", 0.1),
			TitleTopic:           getEnv("TITLE_GENERATION_TOPIC_NAME", "GENERATE_CONVERSATION_TITLE"),
		},
		RateLimit: RateLimitConfig{
			Backend:   getEnv("RATE_LIMIT_BACKEND", "memory"),
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
