package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/hyperjump/grantseek/internal/config"
)

// ErrNoAPIKey is returned when the configured API key variable is unset.
var ErrNoAPIKey = errors.New("chat API key is not set")

// OpenAIModel is a Model backed by an OpenAI-compatible chat completions endpoint.
type OpenAIModel struct {
	client llms.Model
}

// NewOpenAIModel creates a model client from cfg. The token is read from the environment
// variable named by cfg.APIKeyEnv.
func NewOpenAIModel(cfg config.ChatConfig) (*OpenAIModel, error) {
	token := cfg.APIKey()
	if token == "" {
		return nil, fmt.Errorf("%w: export %s", ErrNoAPIKey, cfg.APIKeyEnv)
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(token),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return &OpenAIModel{client: client}, nil
}

// Generate sends messages and returns the first choice's content.
func (m *OpenAIModel) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.MessageContent{
			Role:  messageType(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	resp, err := m.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func messageType(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
