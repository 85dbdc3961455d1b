package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	openai    openai.Client
	model     string
	maxTokens int
}

// New creates a Client speaking the OpenAI chat completions protocol.
// The SDK's built-in retries are disabled so Caller's attempt bound is exact.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &client{
		openai:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

func (c *client) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Task),
		},
		MaxTokens: openai.Int(int64(c.maxTokens)),
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", &StatusError{Message: "no choices in response", transient: true}
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *client) Model() string {
	return c.model
}

// classify maps SDK errors onto the package's error kinds so Caller can decide
// without knowing the SDK.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		se := NewStatusError(apiErr.StatusCode, apiErr.Code, apiErr.Message)
		se.cause = err
		return se
	}

	// No API response: DNS, connection reset, per-attempt timeout.
	return fmt.Errorf("%w: %w", ErrNetworkFailed, err)
}
