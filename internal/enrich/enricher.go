// Package enrich refines heuristic paragraph tags with an LLM and adds gists.
// Every failure is local to one paragraph: its heuristic tags are kept and a
// warning is recorded in the report.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/docstruct/internal/cache"
	"github.com/ppiankov/docstruct/internal/llm"
	"github.com/ppiankov/docstruct/internal/model"
	"github.com/ppiankov/docstruct/internal/segment"
	"github.com/ppiankov/docstruct/internal/worker"
)

// minWords is the shortest paragraph sent for enrichment
const minWords = 3

// Options configures an Enricher
type Options struct {
	Provider   llm.Provider
	Model      string          // Part of the cache key
	Cache      cache.Cache     // nil disables caching
	CacheTTL   time.Duration   // 0 uses the cache default
	Limiter    *worker.Limiter // Keyed by provider name; nil means unlimited
	Workers    int
	Attempts   int // Per completion, including the first
	RetryDelay time.Duration
	MaxTokens  int
	ImageTags  bool
	Logger     *slog.Logger
}

// Report summarizes an enrichment run
type Report struct {
	Provider  string   `json:"provider"`
	Enriched  int      `json:"enriched"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	CacheHits int      `json:"cache_hits"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Enricher runs paragraph analysis against an LLM provider
type Enricher struct {
	provider   llm.Provider
	model      string
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	pool       *worker.Pool
	attempts   uint
	retryDelay time.Duration
	maxTokens  int
	imageTags  bool
	logger     *slog.Logger
}

// New creates an enricher. A provider is required.
func New(opts Options) (*Enricher, error) {
	if opts.Provider == nil {
		return nil, errors.New("enrich: provider is required")
	}

	e := &Enricher{
		provider:   opts.Provider,
		model:      opts.Model,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		limiter:    opts.Limiter,
		pool:       worker.NewPool(opts.Workers),
		attempts:   uint(max(1, opts.Attempts)),
		retryDelay: opts.RetryDelay,
		maxTokens:  opts.MaxTokens,
		imageTags:  opts.ImageTags,
		logger:     opts.Logger,
	}
	if e.limiter == nil {
		e.limiter = worker.NewLimiter(0, 1)
	}
	if e.retryDelay <= 0 {
		e.retryDelay = 500 * time.Millisecond
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Enrich returns an enriched copy of doc. The input is not modified. Tree
// topology never changes; point gists are replaced by paragraph gists. The
// only error is cancellation of ctx.
func (e *Enricher) Enrich(ctx context.Context, doc *model.Document) (*model.Document, *Report, error) {
	out := doc.Clone()
	report := &Report{Provider: e.provider.Name()}
	title := out.Title()
	total := len(out.Paragraphs)

	var jobs []worker.Job
	for i, p := range out.Paragraphs {
		words := model.WordCount(p.Text)
		if words < minWords {
			report.Skipped++
			continue
		}
		jobs = append(jobs, &paragraphJob{
			enricher: e,
			index:    i,
			id:       p.ID,
			prompt:   analysisPrompt(p.Text, positionContext(i, total), title, words),
		})
	}

	results := e.pool.Run(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].(*paragraphResult).index < results[b].(*paragraphResult).index
	})

	for _, r := range results {
		res := r.(*paragraphResult)
		report.CacheHits += res.cacheHits
		report.Warnings = append(report.Warnings, res.warnings...)

		p := &out.Paragraphs[res.index]
		if res.err != nil {
			report.Failed++
			report.Warnings = append(report.Warnings, fmt.Sprintf("paragraph %s: %v", p.ID, res.err))
			e.logger.Warn("enrichment failed, keeping heuristic tags", "paragraph", p.ID, "error", res.err)
			continue
		}

		if res.analysis.StructuralTag != model.TagUnknown {
			p.StructuralTag = res.analysis.StructuralTag
		}
		p.ArgumentRole = res.analysis.ArgumentRole
		p.Gist = res.analysis.Gist
		p.GistSentences = res.gistSentences
		report.Enriched++
	}

	for i, point := range out.ArgumentTree.Points {
		if p, ok := out.Paragraph(point.SourceParagraphID); ok && p.Gist != "" {
			out.ArgumentTree.Points[i].Gist = model.TruncateGist(p.Gist)
		}
	}

	e.logger.Debug("document enriched",
		"provider", report.Provider,
		"enriched", report.Enriched,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"cache_hits", report.CacheHits)

	return out, report, nil
}

type paragraphJob struct {
	enricher *Enricher
	index    int
	id       string
	prompt   string
}

type paragraphResult struct {
	index         int
	analysis      analysis
	gistSentences []model.GistSentence
	cacheHits     int
	warnings      []string
	err           error
}

func (r *paragraphResult) GetError() error {
	return r.err
}

func (j *paragraphJob) Execute(ctx context.Context) worker.Result {
	e := j.enricher
	res := &paragraphResult{index: j.index}

	req := llm.CompletionRequest{
		System:    analysisSystemPrompt,
		Prompt:    j.prompt,
		MaxTokens: e.maxTokens,
		JSON:      true,
	}
	a, hit, err := complete(ctx, e, req, parseAnalysis)
	if hit {
		res.cacheHits++
	}
	if err != nil {
		res.err = err
		return res
	}
	res.analysis = a

	for _, sentence := range segment.Split(a.Gist) {
		gs := model.GistSentence{Text: sentence}
		if e.imageTags {
			tag, hit, err := complete(ctx, e, llm.CompletionRequest{
				System:    imageSystemPrompt,
				Prompt:    imageTagPrompt(sentence),
				MaxTokens: imageTagMaxTokens,
			}, parseImageTag)
			if hit {
				res.cacheHits++
			}
			if err != nil {
				res.warnings = append(res.warnings, fmt.Sprintf("paragraph %s: image tag: %v", j.id, err))
			} else {
				gs.ImageTag = tag
			}
		}
		res.gistSentences = append(res.gistSentences, gs)
	}

	return res
}

func parseImageTag(content string) (string, error) {
	tag := cleanImageTag(content)
	if tag == "" {
		return "", fmt.Errorf("%w: empty image tag", ErrInvalidResponse)
	}
	return tag, nil
}

// complete answers req from the cache or the provider. Provider calls are
// rate limited per provider and retried with backoff, including answers that
// fail to parse. Only parsed values are cached.
func complete[T any](ctx context.Context, e *Enricher, req llm.CompletionRequest, parse func(string) (T, error)) (T, bool, error) {
	name := e.provider.Name()
	key := cache.Key(name, e.model, req.System, req.Prompt)

	var value T
	if e.cache != nil && cache.GetJSON(e.cache, key, &value) {
		return value, true, nil
	}

	value, err := retry.DoWithData(
		func() (T, error) {
			var zero T
			if err := e.limiter.Wait(ctx, name); err != nil {
				return zero, retry.Unrecoverable(err)
			}
			resp, err := e.provider.Complete(ctx, req)
			if err != nil {
				return zero, err
			}
			return parse(resp.Text)
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(e.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Debug("completion failed, retrying", "provider", name, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return value, false, err
	}

	if e.cache != nil {
		if err := cache.SetJSON(e.cache, key, value, e.cacheTTL); err != nil {
			e.logger.Warn("cache write failed", "error", err)
		}
	}
	return value, false, nil
}
