package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/docstruct/internal/llm"
)

const (
	refineSystemPrompt = "You are an expert at creating coherent summaries while preserving key information."
	refineMaxTokens    = 1000
)

// RefinerOptions configures a Refiner
type RefinerOptions struct {
	Attempts   int // Including the first; defaults to 1
	RetryDelay time.Duration
	MaxTokens  int
	Logger     *slog.Logger
}

// Refiner rewrites a transcript into flowing prose
type Refiner struct {
	provider   llm.Provider
	attempts   uint
	retryDelay time.Duration
	maxTokens  int
	logger     *slog.Logger
}

// NewRefiner creates a refiner backed by provider
func NewRefiner(provider llm.Provider, opts RefinerOptions) *Refiner {
	r := &Refiner{
		provider:   provider,
		attempts:   uint(max(1, opts.Attempts)),
		retryDelay: opts.RetryDelay,
		maxTokens:  opts.MaxTokens,
		logger:     opts.Logger,
	}
	if r.retryDelay <= 0 {
		r.retryDelay = 500 * time.Millisecond
	}
	if r.maxTokens <= 0 {
		r.maxTokens = refineMaxTokens
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Refine returns the rewritten transcript. On failure the transcript is
// returned unchanged together with the error, which is also logged.
func (r *Refiner) Refine(ctx context.Context, transcript string) (string, error) {
	if r == nil || r.provider == nil || transcript == "" || transcript == EmptyTranscript {
		return transcript, nil
	}

	text, err := retry.DoWithData(
		func() (string, error) {
			resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
				System:    refineSystemPrompt,
				Prompt:    refinePrompt(transcript),
				MaxTokens: r.maxTokens,
			})
			if err != nil {
				return "", err
			}
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				return "", llm.ErrEmptyResponse
			}
			return text, nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		r.logger.Warn("transcript refinement failed, keeping transcript", "provider", r.provider.Name(), "error", err)
		return transcript, fmt.Errorf("refine transcript: %w", err)
	}
	return text, nil
}

func refinePrompt(transcript string) string {
	return fmt.Sprintf(`Below is a structured transcript of a document:

%s

Transform this into a cohesive, readable summary that flows naturally.
Keep all key points, supporting evidence and conclusions, but make it read
like a fluid document rather than a structured outline.

Use plain language and connect ideas with transitions. Keep the same
information and organization. Be concise but complete.`, transcript)
}
