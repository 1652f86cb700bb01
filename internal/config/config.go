// Package config provides configuration loading and structs for grantseek.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the default config path.
const EnvConfigPath = "GRANTSEEK_CONFIG"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Source    SourceConfig    `yaml:"source"`
	Search    SearchConfig    `yaml:"search"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// WatchArtifacts reloads the engine when the manifest is rewritten by an index run.
	WatchArtifacts *bool `yaml:"watch_artifacts"`
}

// WatchArtifactsOrDefault returns whether to watch the artifacts; defaults to true when unset.
func (s *ServerConfig) WatchArtifactsOrDefault() bool {
	if s.WatchArtifacts != nil {
		return *s.WatchArtifacts
	}
	return true
}

// StorageConfig holds paths for the persisted index pair, manifest and catalog.
type StorageConfig struct {
	IndexPath    string `yaml:"index_path"`
	RecordsPath  string `yaml:"records_path"`
	ManifestPath string `yaml:"manifest_path"`
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is "onnx" or "lexical". ONNX falls back to lexical when unavailable.
	Provider    string `yaml:"provider"`
	ModelName   string `yaml:"model_name"`
	ModelPath   string `yaml:"model_path"`
	VocabPath   string `yaml:"vocab_path"`
	LibraryPath string `yaml:"library_path"`
	OutputName  string `yaml:"output_name"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	BatchSize   int    `yaml:"batch_size"`
	CacheSize   int    `yaml:"cache_size"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// IndexType is "flat" or "faiss".
	IndexType string `yaml:"index_type"`
	// Normalize L2-normalises vectors before indexing and querying.
	Normalize bool `yaml:"normalize"`
}

// SourceConfig holds settings for the upstream grant listing API.
type SourceConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Categories []string      `yaml:"categories"`
	Rows       int           `yaml:"rows"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxTries   int           `yaml:"max_tries"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// ChatConfig holds settings for the conversational layer.
type ChatConfig struct {
	BaseURL            string  `yaml:"base_url"`
	Model              string  `yaml:"model"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	RewriteTemperature float64 `yaml:"rewrite_temperature"`
	RewriteMaxTokens   int     `yaml:"rewrite_max_tokens"`
	AnswerTemperature  float64 `yaml:"answer_temperature"`
	AnswerMaxTokens    int     `yaml:"answer_max_tokens"`
	RetrievalLimit     int     `yaml:"retrieval_limit"`
}

// APIKey returns the chat API key from the configured environment variable.
func (c *ChatConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.expandPaths(filepath.Dir(path))
	return &cfg, nil
}

// Default returns a config with every default applied, with relative paths resolved against dir.
func Default(dir string) *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.expandPaths(dir)
	return &cfg
}

func (c *Config) expandPaths(configDir string) {
	c.Storage.IndexPath = expandPath(c.Storage.IndexPath, configDir)
	c.Storage.RecordsPath = expandPath(c.Storage.RecordsPath, configDir)
	c.Storage.ManifestPath = expandPath(c.Storage.ManifestPath, configDir)
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, configDir)
	if c.Embedding.ModelPath != "" {
		c.Embedding.ModelPath = expandPath(c.Embedding.ModelPath, configDir)
	}
	if c.Embedding.VocabPath != "" {
		c.Embedding.VocabPath = expandPath(c.Embedding.VocabPath, configDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
