package llm

import (
	"errors"
	"testing"

	"github.com/ppiankov/docstruct/internal/model"
)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected disabled provider, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "Ollama", Model: "m"})
	if err != nil || p.Name() != "ollama" {
		t.Errorf("Expected ollama provider, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	if err != nil || p.Name() != "anthropic" {
		t.Errorf("Expected anthropic provider, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("Expected error for OpenAI without API key")
	}

	if _, err := NewProvider(Config{Provider: "gemini"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}
}

func TestConfigFromModel_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", MaxTokens: 200}, model.HTTPConfig{HTTPProxy: "http://proxy:3128"}, nil)
	if cfg.APIKey != "env-key" || cfg.MaxTokens != 200 || cfg.HTTPProxy != "http://proxy:3128" {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	cfg = ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "explicit"}, model.HTTPConfig{}, nil)
	if cfg.APIKey != "explicit" {
		t.Errorf("Expected explicit key to win, got %q", cfg.APIKey)
	}

	cfg = ConfigFromModel(model.LLMConfig{Provider: "ollama"}, model.HTTPConfig{}, nil)
	if cfg.BaseURL != "http://ollama:11434" {
		t.Errorf("Expected Ollama base URL from env, got %q", cfg.BaseURL)
	}
}
