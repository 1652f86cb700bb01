package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/pkg/utils"
)

const descriptionPreview = 200

const systemPrompt = `You are a helpful assistant for municipalities looking for government grants.

Your job:
1. Help the user put into words what they are looking for
2. Analyse search results and explain which grants fit best
3. Ask follow-up questions to understand their needs better
4. Give concrete recommendations

You have access to a search engine that finds relevant grants by semantic similarity.

Be professional but approachable.`

const rewritePrompt = `Based on the user's message, write ONE SHORT search query in English that can be used
to search the grant database. Reply with the search query ONLY, nothing else.

Examples:
User: "We need money to build bike lanes"
You: infrastructure cycling transportation community development

User: "Do you have anything for integration?"
You: integration immigrant settlement social services`

const answerPrompt = `Here are the search results from the grant database:

%s

Analyse these results and:
1. Briefly summarise which grants were found
2. Recommend the 1-3 most relevant
3. Explain WHY they fit the user's needs
4. Ask whether the user wants to know more or search differently

Be CONCRETE and refer to grants by title.`

// Reply is the outcome of one conversational turn.
type Reply struct {
	Reply   string                 `json:"reply"`
	Query   string                 `json:"query"`
	Results []*models.SearchResult `json:"results"`
	History []Message              `json:"history"`
}

// Assistant runs the rewrite, retrieve, answer loop.
type Assistant struct {
	model     Model
	retriever Retriever
	cfg       config.ChatConfig
	logger    *zap.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithLogger sets the assistant logger.
func WithLogger(l *zap.Logger) AssistantOption {
	return func(a *Assistant) { a.logger = l }
}

// NewAssistant creates an assistant. Temperatures, token limits and the retrieval size
// come from cfg.
func NewAssistant(model Model, retriever Retriever, cfg config.ChatConfig, opts ...AssistantOption) *Assistant {
	a := &Assistant{model: model, retriever: retriever, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = utils.OrNop(a.logger)
	return a
}

// Respond appends userMessage to history, asks the model for a retrieval query, retrieves
// matching grants and asks the model to explain them. The returned history holds the user
// message, an internal note naming the query, and the reply. history is not modified.
func (a *Assistant) Respond(ctx context.Context, history []Message, userMessage string) (*Reply, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	updated := make([]Message, 0, len(history)+3)
	updated = append(updated, history...)
	updated = append(updated, Message{Role: RoleUser, Content: userMessage})

	base := make([]Message, 0, len(updated)+2)
	base = append(base, Message{Role: RoleSystem, Content: systemPrompt})
	base = append(base, updated...)

	rewritten, err := a.model.Generate(ctx, appendMessage(base, RoleSystem, rewritePrompt), GenerateOptions{
		Temperature: a.cfg.RewriteTemperature,
		MaxTokens:   a.cfg.RewriteMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite query: %w", err)
	}
	query := cleanQuery(rewritten)
	if query == "" {
		query = userMessage
	}
	a.logger.Debug("rewrote chat message into query", zap.String("query", query))

	k := a.cfg.RetrievalLimit
	if k <= 0 {
		k = 5
	}
	results, err := a.retriever.Query(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve grants: %w", err)
	}
	updated = append(updated, Message{Role: RoleAssistant, Content: fmt.Sprintf("[internal search: %q]", query)})

	answer, err := a.model.Generate(ctx, appendMessage(base, RoleSystem, fmt.Sprintf(answerPrompt, FormatResults(results))), GenerateOptions{
		Temperature: a.cfg.AnswerTemperature,
		MaxTokens:   a.cfg.AnswerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	updated = append(updated, Message{Role: RoleAssistant, Content: answer})

	return &Reply{Reply: answer, Query: query, Results: results, History: updated}, nil
}

// FormatResults renders results as numbered blocks for the answer prompt.
func FormatResults(results []*models.SearchResult) string {
	if len(results) == 0 {
		return "No grants matched the search."
	}
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		rec := r.Record
		blocks = append(blocks, fmt.Sprintf("Grant %d:\nTitle: %s\nAgency: %s\nDeadline: %s\nCategory: %s\nDescription: %s...",
			i+1, rec.Title, rec.Agency, rec.Deadline, rec.Category, utils.Prefix(rec.Description, descriptionPreview)))
	}
	return strings.Join(blocks, "\n\n")
}

func appendMessage(base []Message, role Role, content string) []Message {
	out := make([]Message, len(base), len(base)+1)
	copy(out, base)
	return append(out, Message{Role: role, Content: content})
}

// cleanQuery strips whitespace and wrapping quotes models like to add.
func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	return utils.CollapseSpace(s)
}
