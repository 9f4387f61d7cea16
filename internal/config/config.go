package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr      string        `yaml:"http_addr"`
	MetricsPort   string        `yaml:"metrics_port"`
	DatabaseURL   string        `yaml:"database_url"`
	RedisURL      string        `yaml:"redis_url"`
	GenAIURL      string        `yaml:"genai_api_url"`
	GenAIKey      string        `yaml:"genai_api_key"`
	LLMProvider   string        `yaml:"llm_provider"`
	LLMModel      string        `yaml:"llm_model"`
	Embedder      string        `yaml:"embedder"`
	EmbedModel    string        `yaml:"embedding_model"`
	OpenAIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	WorkerCount   int           `yaml:"worker_count"`
	RetrieverK    int           `yaml:"retriever_k"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	HistoryLimit  int           `yaml:"history_limit"`
	MaxUploadMB   int64         `yaml:"max_upload_mb"`
	Defaults      Defaults      `yaml:"defaults"`
}

// Defaults are the initial values of the settings sidebar.
type Defaults struct {
	Split      SplitParams      `yaml:"split"`
	Generation GenerationParams `yaml:"generation"`
}

// Load reads .env files, an optional YAML file named by CONTEXTCHAT_CONFIG and
// then the environment, later sources overriding earlier ones.
func Load() (*Config, error) {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := os.Getenv("CONTEXTCHAT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.GenAIURL = getEnv("GENAI_API_URL", cfg.GenAIURL)
	cfg.GenAIKey = getEnv("GENAI_API_KEY", cfg.GenAIKey)
	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.Embedder = getEnv("EMBEDDER", cfg.Embedder)
	cfg.EmbedModel = getEnv("EMBEDDING_MODEL", cfg.EmbedModel)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)

	var err error
	if cfg.WorkerCount, err = getEnvInt("WORKER_COUNT", cfg.WorkerCount); err != nil {
		return nil, err
	}
	if cfg.RetrieverK, err = getEnvInt("RETRIEVER_K", cfg.RetrieverK); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", cfg.HistoryLimit); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", int(cfg.MaxUploadMB))
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadMB = int64(maxUpload)
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late, on the first request.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "bam", "openai":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	switch c.Embedder {
	case "local":
	case "openai":
		if c.OpenAIKey == "" {
			return errors.New("openai embedder needs OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown embedder %q", c.Embedder)
	}
	if c.WorkerCount <= 0 {
		return errors.New("worker count must be positive")
	}
	if c.RetrieverK <= 0 {
		return errors.New("retriever k must be positive")
	}
	if c.HistoryLimit < 0 {
		return errors.New("history limit must not be negative")
	}
	if err := c.Defaults.Split.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := c.Defaults.Generation.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		HTTPAddr:     ":8080",
		MetricsPort:  "9090",
		GenAIURL:     "https://bam-api.res.ibm.com",
		LLMProvider:  "bam",
		LLMModel:     "ibm-meta/llama-2-70b-chat-q",
		Embedder:     "local",
		EmbedModel:   "text-embedding-3-small",
		WorkerCount:  4,
		RetrieverK:   4,
		SessionTTL:   30 * time.Minute,
		HistoryLimit: 6,
		MaxUploadMB:  20,
		Defaults: Defaults{
			Split:      DefaultSplit(),
			Generation: DefaultGeneration(),
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
