package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector store backends.
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	LLMTemperature     float32
	EmbeddingBaseURL   string
	EmbeddingModelName string

	VectorSize       int
	VectorBackend    string
	ChromemPath      string
	QdrantURL        string
	VectorCollection string

	DBPath       string
	DocsPath     string
	ChunkSize    int
	ChunkOverlap int
	RetrievalK   int

	SessionTTL       time.Duration
	SeedDefaultUsers bool

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or one of its parents, it is loaded.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	llmBaseURL := getEnv("LLM_BASE_URL", "http://localhost:11434")

	cfg := &Config{
		LLMBaseURL:         llmBaseURL,
		LLMModelName:       getEnv("LLM_MODEL", "llama3.2:latest"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "ollama"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "bge-m3"),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", BackendChromem)),
		ChromemPath:        getEnv("CHROMEM_PATH", "./data/chroma_db"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		VectorCollection:   getEnv("VECTOR_COLLECTION", "loan_features"),
		DocsPath:           getEnv("DOCS_PATH", ""),
		APIPort:            getEnv("API_PORT", "9000"),
	}
	if err := loadDBSettings(cfg); err != nil {
		return nil, err
	}

	// VECTOR_SIZE must match the output size of the embeddings model
	// (1024 for bge-m3). Changing it requires recreating the collection.
	if os.Getenv("VECTOR_SIZE") == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := getInt("VECTOR_SIZE", 0)
	if err != nil {
		return nil, err
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE")
	}

	if cfg.RetrievalK, err = getInt("RETRIEVAL_K", 3); err != nil {
		return nil, err
	}
	if cfg.RetrievalK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_K must be greater than 0")
	}

	temp, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 32)
	if err != nil {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be a number: %w", err)
	}
	if temp < 0 || temp > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	cfg.LLMTemperature = float32(temp)

	cfg.SeedDefaultUsers, err = strconv.ParseBool(getEnv("SEED_DEFAULT_USERS", "false"))
	if err != nil {
		return nil, fmt.Errorf("SEED_DEFAULT_USERS must be a boolean: %w", err)
	}

	switch cfg.VectorBackend {
	case BackendChromem, BackendQdrant:
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be %s or %s", BackendChromem, BackendQdrant)
	}

	// Validate required fields
	if cfg.DocsPath == "" {
		return nil, fmt.Errorf("DOCS_PATH is required")
	}

	if err := ensureDataDir(cfg.DBPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDB reads only the settings needed to open the database and log:
// DB_PATH, SESSION_TTL, LOG_LEVEL and LOG_FORMAT. Maintenance commands that never
// touch documents or embeddings use it instead of Load.
func LoadDB() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := loadDBSettings(cfg); err != nil {
		return nil, err
	}
	if err := ensureDataDir(cfg.DBPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDBSettings(cfg *Config) error {
	cfg.DBPath = getEnv("DB_PATH", "./data/questions.db")
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))

	var err error
	cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "12h"))
	if err != nil {
		return fmt.Errorf("SESSION_TTL must be a duration: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}

// ensureDataDir creates the directory holding the SQLite file.
func ensureDataDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// loadDotEnv loads the nearest .env file, searching up from the working directory.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses an integer environment variable, returning defaultValue when unset.
func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
}
