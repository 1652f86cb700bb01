package config

import "time"

// DefaultCategories are the keywords fetched from the listing API when none are configured.
var DefaultCategories = []string{"education", "health", "environment", "community", "technology"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "./data/grants.index"
	}
	if cfg.Storage.RecordsPath == "" {
		cfg.Storage.RecordsPath = "./data/grants.json"
	}
	if cfg.Storage.ManifestPath == "" {
		cfg.Storage.ManifestPath = "./data/manifest.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/grants.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 512
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "flat"
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = "https://api.grants.gov/v1/api/search2"
	}
	if len(cfg.Source.Categories) == 0 {
		cfg.Source.Categories = append([]string(nil), DefaultCategories...)
	}
	if cfg.Source.Rows == 0 {
		cfg.Source.Rows = 30
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}
	if cfg.Source.MaxTries == 0 {
		cfg.Source.MaxTries = 2
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-4o-mini"
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Chat.RewriteTemperature == 0 {
		cfg.Chat.RewriteTemperature = 0.3
	}
	if cfg.Chat.RewriteMaxTokens == 0 {
		cfg.Chat.RewriteMaxTokens = 100
	}
	if cfg.Chat.AnswerTemperature == 0 {
		cfg.Chat.AnswerTemperature = 0.7
	}
	if cfg.Chat.AnswerMaxTokens == 0 {
		cfg.Chat.AnswerMaxTokens = 800
	}
	if cfg.Chat.RetrievalLimit == 0 {
		cfg.Chat.RetrievalLimit = 5
	}
}
