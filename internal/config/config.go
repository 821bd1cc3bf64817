// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest):
//  1. Environment variables
//  2. Config file (~/.citeseek/config.yaml, or ./config.yaml)
//  3. Defaults
//
// Categories:
//   - AI: provider, generation model, embedder model
//   - Retrieval: candidate pool size, fusion weights, sparse signal toggle
//   - Rerank: enable flag and evidence set size
//   - Ingest: chunking sizes and namespace
//   - Storage: PostgreSQL connection (see storage.go)
//
// Validation is fail-fast: Load returns an error built from the sentinel
// errors below, checkable with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval candidate pool size is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidRerankTopN indicates the evidence set size is out of range.
	ErrInvalidRerankTopN = errors.New("invalid rerank_top_n")

	// ErrInvalidFusionWeights indicates the dense/sparse weights are unusable.
	ErrInvalidFusionWeights = errors.New("invalid fusion weights")

	// ErrInvalidRecallMultiplier indicates the retrieval recall margin is out of range.
	ErrInvalidRecallMultiplier = errors.New("invalid recall multiplier")

	// ErrInvalidCallTimeout indicates the external call timeout is out of range.
	ErrInvalidCallTimeout = errors.New("invalid call timeout")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// DefaultEmbedderModel is the default Gemini embedder.
// gemini-embedding-001 supports truncation to 768 dimensions, matching the
// pgvector column in db/migrations.
const DefaultEmbedderModel = "gemini-embedding-001"

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	OllamaHost    string  `mapstructure:"ollama_host" json:"ollama_host"`

	// Retrieval configuration
	TopK               int     `mapstructure:"top_k" json:"top_k"`                               // candidate pool queried per signal
	SparseEnabled      bool    `mapstructure:"sparse_enabled" json:"sparse_enabled"`             // lexical sub-query on/off
	DenseWeight        float64 `mapstructure:"dense_weight" json:"dense_weight"`                 // fusion weight for dense scores
	SparseWeight       float64 `mapstructure:"sparse_weight" json:"sparse_weight"`               // fusion weight for sparse scores
	RecallMultiplier   int     `mapstructure:"recall_multiplier" json:"recall_multiplier"`       // candidates fetched per final evidence item
	LexicalBonusWeight float64 `mapstructure:"lexical_bonus_weight" json:"lexical_bonus_weight"` // overlap bonus when sparse path unavailable
	MaxContextChars    int     `mapstructure:"max_context_chars" json:"max_context_chars"`

	// Rerank configuration
	RerankEnabled bool `mapstructure:"rerank_enabled" json:"rerank_enabled"`
	RerankTopN    int  `mapstructure:"rerank_top_n" json:"rerank_top_n"`

	// External call policy
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" json:"call_timeout_seconds"`

	// Ingest configuration
	Namespace         string `mapstructure:"namespace" json:"namespace"`
	ChunkChars        int    `mapstructure:"chunk_chars" json:"chunk_chars"`
	ChunkOverlapChars int    `mapstructure:"chunk_overlap_chars" json:"chunk_overlap_chars"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".citeseek")
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
		// A missing file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults. The candidate pool is deliberately larger than the
	// evidence set; see recall_multiplier.
	viper.SetDefault("top_k", 24)
	viper.SetDefault("sparse_enabled", true)
	viper.SetDefault("dense_weight", 0.5)
	viper.SetDefault("sparse_weight", 0.5)
	viper.SetDefault("recall_multiplier", 4)
	// Off by default: with no sparse signal, dense ordering passes through
	// unchanged unless the operator opts in to the overlap bonus.
	viper.SetDefault("lexical_bonus_weight", 0.0)
	viper.SetDefault("max_context_chars", 24000)

	// Rerank defaults
	viper.SetDefault("rerank_enabled", true)
	viper.SetDefault("rerank_top_n", 6)

	// External call policy
	viper.SetDefault("call_timeout_seconds", 10)

	// Ingest defaults
	viper.SetDefault("namespace", "knowledge")
	viper.SetDefault("chunk_chars", 2000)
	viper.SetDefault("chunk_overlap_chars", 200)

	// PostgreSQL defaults for local development
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "citeseek")
	viper.SetDefault("postgres_password", "citeseek_dev_password")
	viper.SetDefault("postgres_db_name", "citeseek")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Logging
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly.
// Provider API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by
// the Genkit plugins, not via viper; Validate only checks their presence.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "CITESEEK_PROVIDER")
	mustBind("model_name", "CITESEEK_MODEL_NAME")
	mustBind("embedder_model", "CITESEEK_EMBEDDER_MODEL")
	mustBind("ollama_host", "CITESEEK_OLLAMA_HOST")
	mustBind("namespace", "CITESEEK_NAMESPACE")
	mustBind("rerank_enabled", "CITESEEK_RERANK_ENABLED")
	mustBind("sparse_enabled", "CITESEEK_SPARSE_ENABLED")
	mustBind("log_level", "CITESEEK_LOG_LEVEL")
}

// CallTimeout returns the per-external-call deadline.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep two characters on each end for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive fields masked.
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
