package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_TEMPERATURE",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"VECTOR_SIZE", "VECTOR_BACKEND", "CHROMEM_PATH", "QDRANT_URL", "VECTOR_COLLECTION",
	"DB_PATH", "DOCS_PATH", "CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_K",
	"SESSION_TTL", "SEED_DEFAULT_USERS", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

// setRequired sets the variables Load cannot do without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VECTOR_SIZE", "1024")
	t.Setenv("DOCS_PATH", t.TempDir())
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "questions.db"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"LLMBaseURL", cfg.LLMBaseURL, "http://localhost:11434"},
		{"LLMModelName", cfg.LLMModelName, "llama3.2:latest"},
		{"LLMTemperature", cfg.LLMTemperature, float32(0.2)},
		{"EmbeddingBaseURL", cfg.EmbeddingBaseURL, "http://localhost:11434"},
		{"EmbeddingModelName", cfg.EmbeddingModelName, "bge-m3"},
		{"VectorSize", cfg.VectorSize, 1024},
		{"VectorBackend", cfg.VectorBackend, BackendChromem},
		{"ChromemPath", cfg.ChromemPath, "./data/chroma_db"},
		{"VectorCollection", cfg.VectorCollection, "loan_features"},
		{"ChunkSize", cfg.ChunkSize, 500},
		{"ChunkOverlap", cfg.ChunkOverlap, 50},
		{"RetrievalK", cfg.RetrievalK, 3},
		{"SessionTTL", cfg.SessionTTL, 12 * time.Hour},
		{"SeedDefaultUsers", cfg.SeedDefaultUsers, false},
		{"APIPort", cfg.APIPort, "9000"},
		{"LogLevel", cfg.LogLevel, slog.LevelInfo},
		{"LogFormat", cfg.LogFormat, "text"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("LLM_BASE_URL", "http://llm:8080")
	t.Setenv("EMBEDDING_BASE_URL", "http://embed:8081")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("VECTOR_BACKEND", "Qdrant")
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("RETRIEVAL_K", "5")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SEED_DEFAULT_USERS", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.EmbeddingBaseURL != "http://embed:8081" {
		t.Errorf("EmbeddingBaseURL = %q", cfg.EmbeddingBaseURL)
	}
	if cfg.LLMTemperature != float32(0.7) {
		t.Errorf("LLMTemperature = %v", cfg.LLMTemperature)
	}
	if cfg.VectorBackend != BackendQdrant || cfg.QdrantURL != "http://qdrant:6333" {
		t.Errorf("backend = %q %q", cfg.VectorBackend, cfg.QdrantURL)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 || cfg.RetrievalK != 5 {
		t.Errorf("chunking = %d/%d k=%d", cfg.ChunkSize, cfg.ChunkOverlap, cfg.RetrievalK)
	}
	if cfg.SessionTTL != 30*time.Minute || !cfg.SeedDefaultUsers {
		t.Errorf("auth = %v %v", cfg.SessionTTL, cfg.SeedDefaultUsers)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
		t.Errorf("logging = %v %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing VECTOR_SIZE", "VECTOR_SIZE", ""},
		{"invalid VECTOR_SIZE", "VECTOR_SIZE", "abc"},
		{"zero VECTOR_SIZE", "VECTOR_SIZE", "0"},
		{"negative VECTOR_SIZE", "VECTOR_SIZE", "-1"},
		{"missing DOCS_PATH", "DOCS_PATH", ""},
		{"unknown backend", "VECTOR_BACKEND", "pinecone"},
		{"bad CHUNK_SIZE", "CHUNK_SIZE", "big"},
		{"overlap not below size", "CHUNK_OVERLAP", "500"},
		{"negative overlap", "CHUNK_OVERLAP", "-5"},
		{"zero RETRIEVAL_K", "RETRIEVAL_K", "0"},
		{"bad temperature", "LLM_TEMPERATURE", "warm"},
		{"temperature out of range", "LLM_TEMPERATURE", "3"},
		{"bad SESSION_TTL", "SESSION_TTL", "forever"},
		{"negative SESSION_TTL", "SESSION_TTL", "-1h"},
		{"bad SEED_DEFAULT_USERS", "SEED_DEFAULT_USERS", "maybe"},
		{"bad LOG_LEVEL", "LOG_LEVEL", "verbose"},
		{"bad LOG_FORMAT", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	dbPath := filepath.Join(t.TempDir(), "nested", "data", "questions.db")
	t.Setenv("DB_PATH", dbPath)

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	info, err := os.Stat(filepath.Dir(dbPath))
	if err != nil {
		t.Fatalf("data directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("data path is not a directory")
	}
}

func TestLoadDB(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "data", "questions.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadDB()
	if err != nil {
		t.Fatalf("LoadDB() error = %v", err)
	}
	if cfg.DBPath != dbPath || cfg.SessionTTL != 30*time.Minute || cfg.LogFormat != "json" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LoadDB() = %+v", cfg)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("data directory was not created: %v", err)
	}

	// Without VECTOR_SIZE and DOCS_PATH the full loader still refuses to start.
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil without VECTOR_SIZE and DOCS_PATH")
	}
}

func TestLoadDB_Errors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SESSION_TTL", "forever"},
		{"SESSION_TTL", "-1h"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "questions.db"))
			t.Setenv(tt.key, tt.value)
			if _, err := LoadDB(); err == nil {
				t.Errorf("LoadDB() error = nil with %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{"env var set", "custom", "default", "custom"},
		{"empty env var uses default", "", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KYSCHAT_TEST_VAR", tt.value)
			if got := getEnv("KYSCHAT_TEST_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
