package llm

import (
	"context"
	"fmt"
	"time"
)

// DefaultBaseURL is the OpenAI-compatible routing endpoint every agent shares.
// Agents differ only by model identifier ("google/gemini-2.5-pro", "x-ai/grok-3", ...).
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds LLM client configuration.
type Config struct {
	APIKey         string        // Required: API key for the routing endpoint
	BaseURL        string        // Optional: custom API endpoint
	Model          string        // Model identifier on the routing endpoint
	MaxTokens      int           // 0 = 1024
	RequestTimeout time.Duration // Per-attempt timeout; 0 = transport default
}

// Request is one generation call: a system instruction plus a task instruction.
// Accumulated context (discussion transcripts, headline lists) is rendered into Task.
type Request struct {
	System string
	Task   string
}

// Client performs a single chat completion and returns the raw text.
// Implementations must not retry; Caller owns the retry policy.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// ClientFactory builds a Client for a model identifier. Agents with different
// models get different clients from the same factory.
type ClientFactory func(model string) (Client, error)

// NewFactory returns a ClientFactory bound to cfg; the model field is replaced per call.
func NewFactory(cfg Config) ClientFactory {
	return func(model string) (Client, error) {
		c := cfg
		c.Model = model
		client, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("llm client for %s: %w", model, err)
		}
		return client, nil
	}
}
