// Package llm wraps the chat-completion APIs used for optional paragraph
// enrichment and transcript refinement.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrUnknownProvider is returned by NewProvider for unsupported provider names
	ErrUnknownProvider = errors.New("unknown LLM provider")

	// ErrEmptyResponse is returned when a provider answers without text
	ErrEmptyResponse = errors.New("empty LLM response")
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length (0 uses the configured value)
	MaxTokens int

	// JSON asks the provider for a JSON object when it supports a JSON mode
	JSON bool
}

// CompletionResponse contains the model output
type CompletionResponse struct {
	// Text is the trimmed response text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	// Logger receives availability diagnostics; nil uses slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   300,
		Temperature: 0.1,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

// resolve fills request defaults from the provider configuration
func (c Config) resolve(req CompletionRequest, defaultModel string) (model string, maxTokens int) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}
	return model, maxTokens
}
