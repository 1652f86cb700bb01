package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// Provider names accepted in embedding.provider.
const (
	ProviderONNX    = "onnx"
	ProviderLexical = "lexical"
)

// New builds the embedder named by cfg.Provider. When ONNX cannot be loaded (no CGO,
// missing model or library) it logs a warning and returns a LexicalEmbedder of the same
// dimensions. Vectors from different providers are not comparable; the manifest records
// which one built an index.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	logger = utils.OrNop(logger)
	switch cfg.Provider {
	case ProviderLexical:
		return NewLexicalEmbedder(cfg.Dimensions), nil
	case ProviderONNX, "":
		emb, err := NewONNXEmbedder(ONNXOptions{
			ModelName:   cfg.ModelName,
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			LibraryPath: cfg.LibraryPath,
			OutputName:  cfg.OutputName,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
			BatchSize:   cfg.BatchSize,
			CacheSize:   cfg.CacheSize,
		})
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using lexical embedder",
				zap.String("model_path", cfg.ModelPath),
				zap.Error(err))
			return NewLexicalEmbedder(cfg.Dimensions), nil
		}
		logger.Info("ONNX embedder loaded",
			zap.String("model", cfg.ModelName),
			zap.Int("dimensions", cfg.Dimensions))
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, lexical)", cfg.Provider)
	}
}
