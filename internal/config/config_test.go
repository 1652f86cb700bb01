package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "/tmp/grants.db"
source:
  rows: 10
  timeout: 5s
  categories: ["health"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/grants.db" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Source.Rows != 10 || cfg.Source.Timeout != 5*time.Second {
		t.Errorf("unexpected source config: %+v", cfg.Source)
	}
	if len(cfg.Source.Categories) != 1 || cfg.Source.Categories[0] != "health" {
		t.Errorf("categories = %v", cfg.Source.Categories)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  index_path: "./data/grants.index"
embedding:
  model_path: "./models/model.onnx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "grants.index"); cfg.Storage.IndexPath != want {
		t.Errorf("index_path = %s, want %s", cfg.Storage.IndexPath, want)
	}
	if want := filepath.Join(dir, "data", "grants.json"); cfg.Storage.RecordsPath != want {
		t.Errorf("records_path = %s, want %s", cfg.Storage.RecordsPath, want)
	}
	if want := filepath.Join(dir, "models", "model.onnx"); cfg.Embedding.ModelPath != want {
		t.Errorf("model_path = %s, want %s", cfg.Embedding.ModelPath, want)
	}
	if cfg.Embedding.VocabPath != "" {
		t.Errorf("vocab_path should stay empty, got %s", cfg.Embedding.VocabPath)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("default limit: got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Embedding.Dimensions != 384 || cfg.Embedding.MaxTokens != 512 || cfg.Embedding.BatchSize != 32 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.OutputName != "last_hidden_state" {
		t.Errorf("output name: got %s", cfg.Embedding.OutputName)
	}
	if cfg.Vector.IndexType != "flat" || cfg.Vector.Normalize {
		t.Errorf("vector defaults: %+v", cfg.Vector)
	}
	if len(cfg.Source.Categories) != 5 || cfg.Source.Categories[0] != "education" {
		t.Errorf("categories: got %v", cfg.Source.Categories)
	}
	if cfg.Source.Rows != 30 || cfg.Source.Timeout != 30*time.Second || cfg.Source.MaxTries != 2 {
		t.Errorf("source defaults: %+v", cfg.Source)
	}
	if cfg.Chat.Model != "gpt-4o-mini" || cfg.Chat.RewriteTemperature != 0.3 || cfg.Chat.AnswerMaxTokens != 800 {
		t.Errorf("chat defaults: %+v", cfg.Chat)
	}
}

func TestApplyDefaults_categoriesNotShared(t *testing.T) {
	a, b := &Config{}, &Config{}
	ApplyDefaults(a)
	ApplyDefaults(b)
	a.Source.Categories[0] = "changed"
	if b.Source.Categories[0] != "education" || DefaultCategories[0] != "education" {
		t.Error("default categories must be copied per config")
	}
}

func TestServerConfig_WatchArtifactsOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		s := &ServerConfig{}
		if got := s.WatchArtifactsOrDefault(); !got {
			t.Errorf("WatchArtifactsOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		s := &ServerConfig{WatchArtifacts: &f}
		if got := s.WatchArtifactsOrDefault(); got {
			t.Errorf("WatchArtifactsOrDefault() = %v, want false", got)
		}
	})
}

func TestChatConfig_APIKey(t *testing.T) {
	t.Setenv("GRANTSEEK_TEST_KEY", "secret")
	c := &ChatConfig{APIKeyEnv: "GRANTSEEK_TEST_KEY"}
	if got := c.APIKey(); got != "secret" {
		t.Errorf("APIKey() = %q", got)
	}
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	if want := filepath.Join(dir, "data", "manifest.json"); cfg.Storage.ManifestPath != want {
		t.Errorf("manifest path = %s, want %s", cfg.Storage.ManifestPath, want)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Source:  SourceConfig{Timeout: 10 * time.Second},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Source.Timeout != 10*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Source.Timeout)
	}
}
