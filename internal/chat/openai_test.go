package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/grantseek/internal/config"
)

func TestNewOpenAIModel_RequiresKey(t *testing.T) {
	t.Setenv("GRANTSEEK_TEST_EMPTY_KEY", "")
	_, err := NewOpenAIModel(config.ChatConfig{Model: "gpt-4o-mini", APIKeyEnv: "GRANTSEEK_TEST_EMPTY_KEY"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestOpenAIModel_Generate(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "community parks recreation"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	t.Setenv("GRANTSEEK_TEST_KEY", "test-key")
	model, err := NewOpenAIModel(config.ChatConfig{
		BaseURL:   srv.URL,
		Model:     "gpt-4o-mini",
		APIKeyEnv: "GRANTSEEK_TEST_KEY",
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := model.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "system"},
		{Role: RoleUser, Content: "parks"},
		{Role: RoleAssistant, Content: "note"},
	}, GenerateOptions{Temperature: 0.3, MaxTokens: 100})
	if err != nil {
		t.Fatal(err)
	}
	if out != "community parks recreation" {
		t.Errorf("Generate() = %q", out)
	}

	if body.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", body.Model)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("sent %d messages, want 3", len(body.Messages))
	}
	for i, role := range []string{"system", "user", "assistant"} {
		if body.Messages[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, body.Messages[i].Role, role)
		}
	}
}
