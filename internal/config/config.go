package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Vector store backends.
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	LLMBaseURL           string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com"`
	AvailableModels      []string      `env:"AVAILABLE_MODELS" envDefault:"gpt-3.5-turbo,gpt-4o-mini,gpt-4o"`
	DefaultModel         string        `env:"DEFAULT_MODEL" envDefault:"gpt-3.5-turbo"`
	Temperature          float32       `env:"TEMPERATURE" envDefault:"0.7"`
	EmbeddingBaseURL     string        `env:"EMBEDDING_BASE_URL"`
	EmbeddingModel       string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingVectorSize  int           `env:"EMBEDDING_VECTOR_SIZE" envDefault:"1536"`
	EmbeddingMaxRetries  int           `env:"EMBEDDING_MAX_RETRIES" envDefault:"3"`
	ChunkSize            int           `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap         int           `env:"CHUNK_OVERLAP" envDefault:"400"`
	PersistDir           string        `env:"PERSIST_DIR" envDefault:"./data/vectors"`
	DBPath               string        `env:"DB_PATH" envDefault:"./data/docchat.db"`
	VectorBackend        string        `env:"VECTOR_BACKEND" envDefault:"chromem"`
	QdrantURL            string        `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	Collection           string        `env:"QDRANT_COLLECTION" envDefault:"documents"`
	DocsDir              string        `env:"DOCS_DIR"`
	IndexConcurrency     int           `env:"INDEX_CONCURRENCY" envDefault:"4"`
	IndexDocumentTimeout time.Duration `env:"INDEX_DOCUMENT_TIMEOUT" envDefault:"5m"`
	MaxUploadBytes       int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	APIPort              string        `env:"API_PORT" envDefault:"8000"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"text"`

	// ConfigFile is the YAML file the values were layered on, if any.
	ConfigFile string `env:"CONFIG_FILE"`
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// When CONFIG_FILE names a YAML file, its keys act as defaults below the environment.
// Environment variables already set take precedence over both.
func Load() (*Config, error) {
	loadDotEnv()

	environ := environMap()
	if path := environ["CONFIG_FILE"]; path != "" {
		fileVars, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			if _, set := environ[k]; !set {
				environ[k] = v
			}
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.LLMBaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.PersistDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads .env from the current directory, then walks up to find one.
func loadDotEnv() {
	_ = godotenv.Load()

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
			return
		}
		dir = parent
	}
}

func environMap() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			m[k] = v
		}
	}
	return m
}

// readConfigFile flattens a YAML mapping into environment-style keys.
// Keys are upper-cased; sequences are joined with commas.
func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToUpper(k)
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			vars[key] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: key %q must be a scalar or a list", path, k)
		default:
			vars[key] = fmt.Sprint(val)
		}
	}
	return vars, nil
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if len(c.AvailableModels) == 0 {
		errs = append(errs, errors.New("AVAILABLE_MODELS must list at least one model"))
	} else if !slices.Contains(c.AvailableModels, c.DefaultModel) {
		errs = append(errs, fmt.Errorf("DEFAULT_MODEL %q is not in AVAILABLE_MODELS", c.DefaultModel))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("TEMPERATURE must be between 0 and 2, got %v", c.Temperature))
	}
	// Note: this must match the output size of the embeddings model.
	// If it changes, the collection must be recreated.
	if c.EmbeddingVectorSize <= 0 {
		errs = append(errs, errors.New("EMBEDDING_VECTOR_SIZE must be greater than 0"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("CHUNK_SIZE must be greater than 0"))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.VectorBackend != BackendChromem && c.VectorBackend != BackendQdrant {
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", BackendChromem, BackendQdrant, c.VectorBackend))
	}
	if c.IndexConcurrency <= 0 {
		errs = append(errs, errors.New("INDEX_CONCURRENCY must be greater than 0"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be greater than 0"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
