// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.manna/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Provider: embedding/generation provider selection and models
//   - Retrieval: chunking constants, topK, similarity threshold, rerank weights
//   - Storage: PostgreSQL connection
//
// Sensitive data (passwords) are masked in MarshalJSON and never logged.
// Validation is comprehensive and fail-fast; see validation.go.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the selected provider's API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the topK value is out of range.
	ErrInvalidTopK = errors.New("invalid topK")

	// ErrInvalidMinSimilarity indicates the similarity threshold is out of range.
	ErrInvalidMinSimilarity = errors.New("invalid minimum similarity")

	// ErrInvalidRerankWeights indicates the rerank blend weights are invalid.
	ErrInvalidRerankWeights = errors.New("invalid rerank weights")

	// ErrInvalidEmbedDimensions indicates the embedding dimension is invalid.
	ErrInvalidEmbedDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")
)

// Provider identifiers used in Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON.
type Config struct {
	// Provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"` // "openai" (default) or "gemini"
	ChatModel   string  `mapstructure:"chat_model" json:"chat_model"`
	EmbedModel  string  `mapstructure:"embed_model" json:"embed_model"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Embedding configuration
	EmbedDimensions int `mapstructure:"embed_dimensions" json:"embed_dimensions"`
	EmbedBatchSize  int `mapstructure:"embed_batch_size" json:"embed_batch_size"`

	// Chunking configuration
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	TopK          int     `mapstructure:"top_k" json:"top_k"`
	MinSimilarity float32 `mapstructure:"min_similarity" json:"min_similarity"`

	// Rerank configuration. The 0.7/0.3 blend is a tunable default, not a
	// contract; see retrieval.Reranker.
	RerankEnabled          bool    `mapstructure:"rerank_enabled" json:"rerank_enabled"`
	RerankSimilarityWeight float64 `mapstructure:"rerank_similarity_weight" json:"rerank_similarity_weight"`
	RerankLexicalWeight    float64 `mapstructure:"rerank_lexical_weight" json:"rerank_lexical_weight"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// OpenAI-compatible endpoint override (Azure, proxies).
	OpenAIBaseURL string `mapstructure:"openai_base_url" json:"openai_base_url"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".manna")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* keys when set.
	if err := cfg.parseDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderOpenAI)
	viper.SetDefault("chat_model", "gpt-4o-mini")
	viper.SetDefault("embed_model", "text-embedding-3-small")
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 1024)

	viper.SetDefault("embed_dimensions", 1536)
	viper.SetDefault("embed_batch_size", 100)

	viper.SetDefault("chunk_size", 1200)
	viper.SetDefault("chunk_overlap", 200)

	viper.SetDefault("top_k", 5)
	viper.SetDefault("min_similarity", 0.25)

	viper.SetDefault("rerank_enabled", true)
	viper.SetDefault("rerank_similarity_weight", 0.7)
	viper.SetDefault("rerank_lexical_weight", 0.3)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "manna")
	viper.SetDefault("postgres_password", "manna_dev_password")
	viper.SetDefault("postgres_db_name", "manna")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("openai_base_url", "https://api.openai.com/v1")
}

// bindEnvVariables binds environment overrides explicitly.
//
// API keys are read directly from the environment by the provider clients
// (OPENAI_API_KEY / GEMINI_API_KEY), not through viper; Validate checks their
// presence based on the selected provider.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "MANNA_PROVIDER")
	mustBind("chat_model", "MANNA_CHAT_MODEL")
	mustBind("embed_model", "MANNA_EMBED_MODEL")
	mustBind("openai_base_url", "MANNA_OPENAI_BASE_URL")
	mustBind("postgres_host", "MANNA_POSTGRES_HOST")
	mustBind("postgres_password", "MANNA_POSTGRES_PASSWORD")
}

// parseDatabaseURL splits a postgres:// URL into the individual fields.
// An empty input leaves the configuration untouched.
func (c *Config) parseDatabaseURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("unsupported scheme %q (expected postgres or postgresql)", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("parsing port: %w", err)
		}
		c.PostgresPort = p
	}
	if u.User != nil {
		c.PostgresUser = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.PostgresPassword = pw
		}
	}
	if db := trimLeadingSlash(u.Path); db != "" {
		c.PostgresDBName = db
	}
	if ssl := u.Query().Get("sslmode"); ssl != "" {
		c.PostgresSSLMode = ssl
	}
	return nil
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// ConnURL returns the postgres:// connection URL for pgx and golang-migrate.
func (c *Config) ConnURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are fully
// masked to prevent substring matching; longer ones keep the first and last
// two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
