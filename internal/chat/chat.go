// Package chat implements the conversational grant assistant: a chat model rewrites the
// user's request into a retrieval query, the engine retrieves matching grants, and the
// model explains the results.
package chat

import (
	"context"

	"github.com/hyperjump/grantseek/internal/models"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions controls a single model call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Model produces the next assistant message for a conversation.
type Model interface {
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}

// Retriever returns the k grants nearest to text. *search.Engine satisfies it.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]*models.SearchResult, error)
}
