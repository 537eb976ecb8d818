package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Agent     AgentConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path         string
	DialTimeout  time.Duration
	DefaultLimit int
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr  string
	UploadDir string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Pdftoppm      string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider string // "ollama" | "openai"
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// EmbeddingConfig holds embedding-model configuration
type EmbeddingConfig struct {
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	IndexPath string
}

// AgentConfig holds query-router configuration
type AgentConfig struct {
	CacheSize    int
	SearchTopK   int
	MetricsLimit int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         getEnv("DB_PATH", "./data/docsight.db"),
			DialTimeout:  getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			DefaultLimit: getEnvAsInt("SQL_DEFAULT_LIMIT", 100),
		},
		Server: ServerConfig{
			HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
			UploadDir: getEnv("UPLOAD_DIR", "./data/uploads"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "ollama"),
			BaseURL:  getEnv("LLM_BASE_URL", "http://localhost:11434"),
			Model:    getEnv("LLM_MODEL", "llama3.1"),
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			Timeout:  getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:11434/v1"),
			Model:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			Timeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			IndexPath: getEnv("VECTOR_INDEX_PATH", "./data/vector_index.gob"),
		},
		Agent: AgentConfig{
			CacheSize:    getEnvAsInt("AGENT_CACHE_SIZE", 256),
			SearchTopK:   getEnvAsInt("AGENT_SEARCH_TOP_K", 3),
			MetricsLimit: getEnvAsInt("AGENT_METRICS_LIMIT", 10),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai provider", ErrInvalidInput)
	}
	return nil
}
