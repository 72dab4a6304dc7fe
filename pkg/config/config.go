package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// Config holds all configuration for the generator.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Paths     PathsConfig     `yaml:"paths"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`

	// Provider credentials. Secrets - not in YAML.
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`
}

// LLMConfig selects the chat model used by every generation stage.
type LLMConfig struct {
	// Provider is one of "openai", "anthropic", "gemini".
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	// Temperature accepts 0; its default is set in defaultConfig.
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE"`
	// BaseURL overrides the OpenAI-compatible endpoint (optional).
	BaseURL   string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	MaxTokens int    `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`

	MaxRetries       int           `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`
	CircuitThreshold int           `yaml:"circuit_threshold" env:"LLM_CIRCUIT_THRESHOLD" env-default:"5"`
	CircuitReset     time.Duration `yaml:"circuit_reset" env:"LLM_CIRCUIT_RESET" env-default:"30s"`
}

// EmbeddingConfig configures the embedding collaborator and the index collection.
type EmbeddingConfig struct {
	// Provider is one of "openai", "gemini".
	Provider   string `yaml:"provider" env:"EMBEDDING_PROVIDER" env-default:"openai"`
	Model      string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-3-large"`
	BaseURL    string `yaml:"base_url" env:"EMBEDDING_BASE_URL" env-default:""`
	Dimensions int    `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS" env-default:"0"`
	BatchSize  int    `yaml:"batch_size" env:"EMBEDDING_BATCH_SIZE" env-default:"100"`
	Collection string `yaml:"collection" env:"EMBEDDING_COLLECTION" env-default:"sample_text_file"`
}

// DatabaseConfig holds PostgreSQL (pgvector) connection configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"POSTGRES_USER" env-default:"GELMUSER"`
	Password       string `yaml:"-" env:"POSTGRES_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"POSTGRES_DB" env-default:"GELMDB"`
	SSLMode        string `yaml:"ssl_mode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"POSTGRES_MAX_CONNECTIONS" env-default:"5"`
}

// RedisConfig configures the optional embedding cache. An empty host disables it.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_EMBEDDING_TTL" env-default:"168h"`
}

// PathsConfig locates inputs and outputs on disk.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" env:"GELM_DATA_DIR" env-default:"./data/expectation_and_prompt_sample"`
	Workbook      string `yaml:"workbook" env:"GELM_WORKBOOK" env-default:""`
	SamplePrompts string `yaml:"sample_prompts" env:"GELM_SAMPLE_PROMPTS" env-default:""`
	LedgerDir     string `yaml:"ledger_dir" env:"GELM_LEDGER_DIR" env-default:""`
	DatasetDir    string `yaml:"dataset_dir" env:"GELM_DATASET_DIR" env-default:"./data/finetuning_dataset/generated"`
	LogFile       string `yaml:"log_file" env:"GELM_LOG_FILE" env-default:"expectation_generation.log"`
	// Exemplars is an optional YAML file overriding the built-in few-shot examples.
	Exemplars string `yaml:"exemplars" env:"GELM_EXEMPLARS" env-default:""`
}

// PipelineConfig tunes the generation loop.
type PipelineConfig struct {
	Throttle        time.Duration `yaml:"throttle" env:"GELM_THROTTLE"`
	Seed            uint64        `yaml:"seed" env:"GELM_SEED" env-default:"0"`
	MinCombination  int           `yaml:"min_combination" env:"GELM_MIN_COMBINATION" env-default:"2"`
	MaxCombination  int           `yaml:"max_combination" env:"GELM_MAX_COMBINATION" env-default:"5"`
	MinDomains      int           `yaml:"min_domains" env:"GELM_MIN_DOMAINS" env-default:"2"`
	MaxDomains      int           `yaml:"max_domains" env:"GELM_MAX_DOMAINS" env-default:"5"`
	PromptsPerBatch int           `yaml:"prompts_per_batch" env:"GELM_PROMPTS_PER_BATCH" env-default:"25"`
	BatchSize       int           `yaml:"batch_size" env:"GELM_BATCH_SIZE" env-default:"100"`
	Concurrency     int           `yaml:"concurrency" env:"GELM_CONCURRENCY" env-default:"1"`
	// Index is "pgvector" (persistent) or "memory" (dry runs).
	Index string `yaml:"index" env:"GELM_INDEX" env-default:"pgvector"`

	// DedupeLedger drops prompts already present in today's ledger before appending.
	DedupeLedger bool `yaml:"dedupe_ledger" env:"GELM_DEDUPE_LEDGER" env-default:"false"`
	// IndexGeneratedPrompts inserts appended prompts into the embedding index.
	IndexGeneratedPrompts bool `yaml:"index_generated_prompts" env:"GELM_INDEX_GENERATED_PROMPTS" env-default:"false"`
}

// Load reads configuration from the given YAML path with environment variable overrides.
// A missing YAML file is not an error: defaults and the environment are used.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := defaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		} else if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDerivedPaths()
	cfg.resolveServiceHosts(IsRunningInDocker())

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig seeds fields whose zero value is a legitimate setting.
func defaultConfig() *Config {
	return &Config{
		LLM:      LLMConfig{Temperature: 0.7},
		Pipeline: PipelineConfig{Throttle: 5 * time.Second},
	}
}

// applyDerivedPaths fills paths that default to locations inside DataDir.
func (c *Config) applyDerivedPaths() {
	if c.Paths.Workbook == "" {
		c.Paths.Workbook = filepath.Join(c.Paths.DataDir, "listExpectations.xlsx")
	}
	if c.Paths.SamplePrompts == "" {
		c.Paths.SamplePrompts = filepath.Join(c.Paths.DataDir, "sample_quality_check_prompts.txt")
	}
	if c.Paths.LedgerDir == "" {
		c.Paths.LedgerDir = c.Paths.DataDir
	}
}

func (c *Config) validate() error {
	p := c.Pipeline
	if p.MinCombination < 1 || p.MaxCombination < p.MinCombination {
		return fmt.Errorf("combination bounds [%d,%d] are invalid", p.MinCombination, p.MaxCombination)
	}
	if p.MinDomains < 1 || p.MaxDomains < p.MinDomains {
		return fmt.Errorf("domain bounds [%d,%d] are invalid", p.MinDomains, p.MaxDomains)
	}
	if p.Throttle < 0 {
		return fmt.Errorf("throttle must not be negative")
	}
	switch p.Index {
	case "pgvector", "memory":
	default:
		return fmt.Errorf("unsupported index backend %q (use pgvector or memory)", p.Index)
	}
	return nil
}

// RequireLLM returns an error when the credential for the configured chat provider is absent.
func (c *Config) RequireLLM() error {
	return c.requireKey(c.LLM.Provider, c.LLM.BaseURL)
}

// RequireEmbedding returns an error when the credential for the configured embedding provider is absent.
func (c *Config) RequireEmbedding() error {
	return c.requireKey(c.Embedding.Provider, c.Embedding.BaseURL)
}

// APIKey returns the credential for a provider name.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func (c *Config) requireKey(provider, baseURL string) error {
	envVar := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"gemini":    "GEMINI_API_KEY",
	}[provider]
	if envVar == "" {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	// Self-hosted OpenAI-compatible endpoints may run without a key.
	if provider == "openai" && baseURL != "" {
		return nil
	}
	if c.APIKey(provider) == "" {
		return fmt.Errorf("%w: %s is not set", apperrors.ErrMissingCredentials, envVar)
	}
	return nil
}

// URL returns a PostgreSQL connection URL.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
