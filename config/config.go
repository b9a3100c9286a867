// Package config loads application settings from defaults, an optional YAML
// file and PEDSAFE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/pedsafe/ai"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PEDSAFE_AI_API_KEY.
const EnvPrefix = "PEDSAFE"

// Config is the complete application configuration.
type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	OpenFDA   OpenFDAConfig   `mapstructure:"openfda"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	History   HistoryConfig   `mapstructure:"history"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	EmbeddingHost   string        `mapstructure:"embedding_host"`
	GenerativeHost  string        `mapstructure:"generative_host"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	GenerativeModel string        `mapstructure:"generative_model"`
	APIKey          string        `mapstructure:"api_key"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// OpenFDAConfig configures the report source.
type OpenFDAConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	DaysBack          int           `mapstructure:"days_back"`
	ReportLimit       int           `mapstructure:"report_limit"`
	PageSize          int           `mapstructure:"page_size"`
	Workers           int           `mapstructure:"workers"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// RetrievalConfig configures the hybrid retriever.
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// SummaryConfig configures the summarizer.
type SummaryConfig struct {
	MaxRecords int `mapstructure:"max_records"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig configures the analysis ledger. An empty path disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load builds a Config. path names an optional YAML file; when empty only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := ai.DefaultConfig()
	v.SetDefault("ai.embedding_host", def.EmbeddingHost)
	v.SetDefault("ai.generative_host", def.GenerativeHost)
	v.SetDefault("ai.embedding_model", def.EmbeddingModel)
	v.SetDefault("ai.generative_model", def.GenerativeModel)
	v.SetDefault("ai.api_key", def.APIKey)
	v.SetDefault("ai.request_timeout", def.RequestTimeout)

	v.SetDefault("openfda.base_url", "https://api.fda.gov/drug/event.json")
	v.SetDefault("openfda.api_key", "")
	v.SetDefault("openfda.days_back", 365)
	v.SetDefault("openfda.report_limit", 100)
	v.SetDefault("openfda.page_size", 100)
	v.SetDefault("openfda.workers", 2)
	v.SetDefault("openfda.requests_per_minute", 240)
	v.SetDefault("openfda.timeout", 30*time.Second)

	v.SetDefault("retrieval.top_k", 10)
	v.SetDefault("summary.max_records", 20)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("history.path", "")
}

// Validate checks the values that have no safe fallback downstream.
func (c *Config) Validate() error {
	if c.Retrieval.TopK <= 0 {
		return errors.New("config: retrieval.top_k must be positive")
	}
	if c.Summary.MaxRecords <= 0 {
		return errors.New("config: summary.max_records must be positive")
	}
	if c.OpenFDA.ReportLimit <= 0 {
		return errors.New("config: openfda.report_limit must be positive")
	}
	if c.OpenFDA.DaysBack <= 0 {
		return errors.New("config: openfda.days_back must be positive")
	}
	return nil
}

// AIConfig converts the AI section into a validated ai.Config.
func (c *Config) AIConfig() (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerativeHost(c.AI.GenerativeHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerativeModel(c.AI.GenerativeModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithRequestTimeout(c.AI.RequestTimeout),
	)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
