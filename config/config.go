package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Budget   BudgetConfig   `yaml:"budget"`
	Chat     ChatConfig     `yaml:"chat"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig selects and configures the hosted model endpoint.
type ProviderConfig struct {
	Name        string  `yaml:"name"`        // "openai", "deepseek", "groq", "ollama", "mock"
	Model       string  `yaml:"model"`       // e.g. "gpt-4o-mini"
	BaseURL     string  `yaml:"base_url"`    // override for self-hosted gateways
	APIKeyEnv   string  `yaml:"api_key_env"` // environment variable holding the key
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MaxRetries  int     `yaml:"max_retries"`
	MaxTurns    int     `yaml:"max_turns"` // tool-loop bound per request
}

// BudgetConfig controls prompt token allocation.
type BudgetConfig struct {
	ContextWindow   int `yaml:"context_window"` // 0 = look up by model name
	SystemPercent   int `yaml:"system_percent"`
	ContextPercent  int `yaml:"context_percent"`
	UserPercent     int `yaml:"user_percent"`
	ReservedPercent int `yaml:"reserved_percent"`
}

// ChatConfig controls conversation behavior.
type ChatConfig struct {
	Persona       string  `yaml:"persona"`
	HistoryLimit  int     `yaml:"history_limit"` // max stored messages sent per request
	Stream        bool    `yaml:"stream"`
	RetrievalTopK int     `yaml:"retrieval_top_k"`
	UseKnowledge  bool    `yaml:"use_knowledge"` // ground answers in ingested docs
	MinScore      float64 `yaml:"min_score"`     // drop retrieved chunks below this
}

// IngestConfig controls document ingestion.
type IngestConfig struct {
	Includes            []string        `yaml:"includes"`
	Excludes            []string        `yaml:"excludes"`
	ChunkTokens         int             `yaml:"chunk_tokens"`
	MinSentenceLen      int             `yaml:"min_sentence_len"`
	SimilarityGrouping  bool            `yaml:"similarity_grouping"`
	SimilarityThreshold float64         `yaml:"similarity_threshold"`
	MaxFileBytes        int64           `yaml:"max_file_bytes"`
	Embedding           EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig configures the embeddings endpoint.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"` // "openai", "deepseek", "jina", "ollama", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			TimeoutSec:  120,
			MaxRetries:  3,
			MaxTurns:    8,
		},
		Budget: BudgetConfig{
			SystemPercent:   15,
			ContextPercent:  40,
			UserPercent:     25,
			ReservedPercent: 20,
		},
		Chat: ChatConfig{
			Persona:       "default",
			HistoryLimit:  40,
			Stream:        true,
			RetrievalTopK: 6,
			UseKnowledge:  true,
			MinScore:      0.2,
		},
		Ingest: IngestConfig{
			Includes:            []string{"**/*.md", "**/*.txt", "**/*.rst", "**/*.go", "**/*.py"},
			Excludes:            []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.aissistant/**"},
			ChunkTokens:         120,
			MinSentenceLen:      20,
			SimilarityGrouping:  true,
			SimilarityThreshold: 0.35,
			MaxFileBytes:        1 << 20,
			Embedding: EmbeddingConfig{
				Enabled:   true,
				Provider:  "openai",
				Model:     "text-embedding-3-small",
				APIKeyEnv: "OPENAI_API_KEY",
				Dimension: 1536,
				BatchSize: 100,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory, checking
// aissistant.yaml then .aissistant/config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "aissistant.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".aissistant", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the assistant's data directory under dir.
func DataDir(dir string) string {
	return filepath.Join(dir, ".aissistant")
}

// StoreDBPath returns the path to the assistant database.
func StoreDBPath(dir string) string {
	return filepath.Join(dir, ".aissistant", "assistant.db")
}

// PersonasPath returns the path to the personas file.
func PersonasPath(dir string) string {
	return filepath.Join(dir, ".aissistant", "personas.toml")
}

// EnsureDataDir ensures the .aissistant directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
