package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/docstruct/internal/analyze"
	"github.com/ppiankov/docstruct/internal/cache"
	"github.com/ppiankov/docstruct/internal/enrich"
	"github.com/ppiankov/docstruct/internal/extract"
	"github.com/ppiankov/docstruct/internal/llm"
	"github.com/ppiankov/docstruct/internal/model"
	"github.com/ppiankov/docstruct/internal/synth"
	"github.com/ppiankov/docstruct/internal/worker"
)

// Pipeline orchestrates the complete analysis of one document
type Pipeline struct {
	loader   *extract.Loader
	analyzer *analyze.Analyzer
	enricher *enrich.Enricher // nil when no LLM provider is configured
	refiner  *synth.Refiner   // nil unless refinement is enabled
	logger   *slog.Logger
}

// NewPipeline creates a pipeline, building the LLM provider from cfg.LLM.
// An empty provider name disables enrichment and refinement.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP, logger))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	return NewPipelineWithProvider(cfg, provider, logger)
}

// NewPipelineWithProvider creates a pipeline around an existing provider.
// A nil provider disables enrichment and refinement.
func NewPipelineWithProvider(cfg *model.Config, provider llm.Provider, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Fetch hosts and the LLM provider share one limiter, keyed separately
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	p := &Pipeline{
		loader: extract.NewLoader(extract.NewFetcher(cfg.HTTP, limiter, logger)),
		analyzer: analyze.New(analyze.Options{
			Workers: cfg.Concurrency.SplitWorkers,
			Logger:  logger,
		}),
		logger: logger,
	}

	if provider == nil {
		return p, nil
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	enricher, err := enrich.New(enrich.Options{
		Provider:  provider,
		Model:     cfg.LLM.Model,
		Cache:     c,
		Limiter:   limiter,
		Workers:   cfg.Concurrency.EnrichWorkers,
		Attempts:  cfg.LLM.Retries,
		MaxTokens: cfg.LLM.MaxTokens,
		ImageTags: cfg.LLM.ImageTags,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create enricher: %w", err)
	}
	p.enricher = enricher

	if cfg.LLM.Refine {
		p.refiner = synth.NewRefiner(provider, synth.RefinerOptions{
			Attempts: cfg.LLM.Retries,
			Logger:   logger,
		})
	}

	return p, nil
}

// Result is the outcome of analyzing one target
type Result struct {
	Target     string          `json:"target"`
	Document   *model.Document `json:"document"`
	Enrichment *enrich.Report  `json:"enrichment,omitempty"`
	Transcript string          `json:"transcript"`
	Synthesis  string          `json:"synthesis"` // Refined transcript, or the transcript itself
	Refined    bool            `json:"refined"`
	Warnings   []string        `json:"warnings,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Run loads, analyzes and optionally enriches and refines one file or URL
func (p *Pipeline) Run(ctx context.Context, target string) (*Result, error) {
	start := time.Now()

	// 1. Load paragraphs
	src, err := p.loader.Load(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", target, err)
	}

	// 2. Analyze structure
	doc := p.analyzer.Analyze(src.Paragraphs, src.Metadata)

	result := &Result{
		Target:   target,
		Document: doc,
	}

	// 3. Enrich with the LLM (optional, never fatal)
	if p.enricher != nil {
		enriched, report, err := p.enricher.Enrich(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("enrich %s: %w", target, err)
		}
		result.Document = enriched
		result.Enrichment = report
		result.Warnings = append(result.Warnings, report.Warnings...)
	}

	// 4. Build transcript
	result.Transcript = synth.Transcript(result.Document)
	result.Synthesis = result.Transcript

	// 5. Refine transcript (optional, falls back to the transcript)
	if p.refiner != nil {
		refined, err := p.refiner.Refine(ctx, result.Transcript)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		} else {
			result.Synthesis = refined
			result.Refined = refined != result.Transcript
		}
	}

	result.Duration = time.Since(start)
	p.logger.Debug("pipeline finished",
		"target", target,
		"paragraphs", len(result.Document.Paragraphs),
		"enriched", result.Enrichment != nil,
		"refined", result.Refined,
		"duration", result.Duration)

	return result, nil
}

// RunBatch runs every target with up to workers in flight and returns
// results in input order
func (p *Pipeline) RunBatch(ctx context.Context, targets []string, workers int) []*worker.TargetResult[*Result] {
	return worker.NewBatchProcessor(p.Run, workers).ProcessTargets(ctx, targets)
}

// RunBatchFile reads targets from listFile (one per line, '#' comments) and runs them
func (p *Pipeline) RunBatchFile(ctx context.Context, listFile string, workers int) ([]*worker.TargetResult[*Result], error) {
	return worker.NewBatchProcessor(p.Run, workers).ProcessFile(ctx, listFile)
}

// Analyzer returns the structural analyzer
func (p *Pipeline) Analyzer() *analyze.Analyzer {
	return p.analyzer
}

// Enricher returns the LLM enricher, or nil when enrichment is disabled
func (p *Pipeline) Enricher() *enrich.Enricher {
	return p.enricher
}
