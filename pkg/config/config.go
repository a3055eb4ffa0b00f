package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	OpenAI    OpenAIConfig
	Search    SearchConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string // prepended to every cache key
}

// EmbeddingConfig holds configuration for the text embedding service.
type EmbeddingConfig struct {
	URL             string
	Model           string
	TimeoutSeconds  int
	CacheTTLSeconds int
}

// OpenAIConfig holds configuration for the similarity LLM.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Backend        string // "http" or "langchaingo"
	TimeoutSeconds int
	RateLimitRPM   int
	RateLimitBurst int
}

// SearchConfig holds ranking defaults. Every field may be overridden by the
// YAML file named in SEARCH_TUNING_FILE.
type SearchConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold"`
	GenericBatchSize int     `yaml:"generic_batch_size"`
	DeviceBatchSize  int     `yaml:"device_batch_size"`
	ClinicBatchSize  int     `yaml:"clinic_batch_size"`
	Workers          int     `yaml:"workers"`
	CandidateLimit   int     `yaml:"candidate_limit"`
	TuningFile       string  `yaml:"-"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "medbook"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvAsInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "medbook:"),
		},
		Embedding: EmbeddingConfig{
			URL:             getEnv("EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
			Model:           getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			TimeoutSeconds:  getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 15),
			CacheTTLSeconds: getEnvAsInt("EMBEDDING_CACHE_TTL_SECONDS", 86400),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Backend:        getEnv("OPENAI_BACKEND", "http"),
			TimeoutSeconds: getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 60),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 0),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 0),
		},
		Search: SearchConfig{
			DefaultThreshold: getEnvAsFloat("SEARCH_DEFAULT_THRESHOLD", 0.40),
			GenericBatchSize: getEnvAsInt("SEARCH_GENERIC_BATCH_SIZE", 200),
			DeviceBatchSize:  getEnvAsInt("SEARCH_DEVICE_BATCH_SIZE", 400),
			ClinicBatchSize:  getEnvAsInt("SEARCH_CLINIC_BATCH_SIZE", 500),
			Workers:          getEnvAsInt("SEARCH_WORKERS", 8),
			CandidateLimit:   getEnvAsInt("SEARCH_CANDIDATE_LIMIT", 5000),
			TuningFile:       getEnv("SEARCH_TUNING_FILE", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medbook-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Search.TuningFile != "" {
		if err := cfg.Search.applyTuningFile(cfg.Search.TuningFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyTuningFile overlays non-zero values from a YAML file onto the search config.
func (c *SearchConfig) applyTuningFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read search tuning file: %w", err)
	}

	var overrides SearchConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse search tuning file: %w", err)
	}

	if overrides.DefaultThreshold > 0 {
		c.DefaultThreshold = overrides.DefaultThreshold
	}
	if overrides.GenericBatchSize > 0 {
		c.GenericBatchSize = overrides.GenericBatchSize
	}
	if overrides.DeviceBatchSize > 0 {
		c.DeviceBatchSize = overrides.DeviceBatchSize
	}
	if overrides.ClinicBatchSize > 0 {
		c.ClinicBatchSize = overrides.ClinicBatchSize
	}
	if overrides.Workers > 0 {
		c.Workers = overrides.Workers
	}
	if overrides.CandidateLimit > 0 {
		c.CandidateLimit = overrides.CandidateLimit
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
