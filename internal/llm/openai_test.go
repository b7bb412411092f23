package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/safeplan-io/safeplan/internal/model"
)

func newFakeCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIClient_Complete_Success(t *testing.T) {
	server := newFakeCompletionServer(t, "  a grounded analysis  ")
	defer server.Close()

	client, err := NewOpenAIClient(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	out, err := client.Complete(context.Background(), CompletionRequest{Prompt: "analyze this"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "a grounded analysis" {
		t.Errorf("Unexpected completion: %q", out)
	}
}

func TestOpenAIClient_Complete_APIErrorWrapsGenerationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{Prompt: "analyze this"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var genErr *model.GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("Expected GenerationError, got %T: %v", err, err)
	}
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient(model.LLMConfig{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

type countingClient struct {
	calls int
}

func (c *countingClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingClient) Name() string { return "counting" }

func TestRateLimitedClient_Delegates(t *testing.T) {
	inner := &countingClient{}
	limited := NewRateLimitedClient(inner, 100, 1)

	for i := 0; i < 3; i++ {
		out, err := limited.Complete(context.Background(), CompletionRequest{Prompt: "p"})
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if out != "ok" {
			t.Errorf("Unexpected completion: %q", out)
		}
	}
	if inner.calls != 3 {
		t.Errorf("Expected 3 inner calls, got %d", inner.calls)
	}
	if limited.Name() != "counting" {
		t.Errorf("Unexpected name: %s", limited.Name())
	}
}

func TestRateLimitedClient_RespectsContextCancellation(t *testing.T) {
	inner := &countingClient{}
	limited := NewRateLimitedClient(inner, 0.001, 1)

	// Drain the single burst token, then a cancelled context must fail
	// instead of blocking for the refill.
	if _, err := limited.Complete(context.Background(), CompletionRequest{Prompt: "p"}); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := limited.Complete(ctx, CompletionRequest{Prompt: "p"}); err == nil {
		t.Fatal("Expected context error, got nil")
	}
}
