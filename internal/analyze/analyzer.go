// Package analyze turns raw paragraph strings into a classified document with
// an argument tree.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/docstruct/internal/classify"
	"github.com/ppiankov/docstruct/internal/model"
	"github.com/ppiankov/docstruct/internal/segment"
	"github.com/ppiankov/docstruct/internal/worker"
)

// Options configures an Analyzer
type Options struct {
	// Workers is the per-paragraph split/classify concurrency; <= 1 runs inline
	Workers int

	// IDFunc names placeholder slots and defaults to uuid.NewString. Placeholder
	// IDs are the only part of a Document that differs between runs on the
	// same input.
	IDFunc func() string

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Analyzer runs sentence splitting, classification, document refinement and
// tree assembly as a sequence of stages
type Analyzer struct {
	workers int
	newID   func() string
	logger  *slog.Logger
}

// New creates an Analyzer
func New(opts Options) *Analyzer {
	a := &Analyzer{
		workers: opts.Workers,
		newID:   opts.IDFunc,
		logger:  opts.Logger,
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// rawParagraph is an input paragraph with its assigned identifier
type rawParagraph struct {
	ID   string
	Text string
}

// Analyze builds a Document from ordered paragraph texts. Whitespace-only
// paragraphs are skipped. Metadata is copied through unchanged. The result
// depends only on the input; it never fails.
func (a *Analyzer) Analyze(paragraphs []string, metadata map[string]any) *model.Document {
	raw := prepare(paragraphs)
	classified := a.segmentAndClassify(raw)
	refined, thesisID := Refine(classified)
	tree := BuildTree(refined, thesisID, a.newID)

	doc := &model.Document{
		Metadata:     copyMetadata(metadata),
		Paragraphs:   refined,
		ArgumentTree: tree,
	}

	a.logger.Debug("document analyzed",
		"paragraphs", len(refined),
		"skipped", len(paragraphs)-len(raw),
		"points", len(tree.Points),
		"thesis", thesisID != "",
	)
	return doc
}

// prepare drops blank paragraphs and assigns sequential identifiers
func prepare(paragraphs []string) []rawParagraph {
	out := make([]rawParagraph, 0, len(paragraphs))
	for _, text := range paragraphs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, rawParagraph{
			ID:   fmt.Sprintf("p-%d", len(out)+1),
			Text: text,
		})
	}
	return out
}

// segmentAndClassify splits and classifies every paragraph independently
func (a *Analyzer) segmentAndClassify(raw []rawParagraph) []model.Paragraph {
	out := make([]model.Paragraph, len(raw))

	if a.workers <= 1 || len(raw) < 2 {
		for i, r := range raw {
			out[i] = analyzeParagraph(r)
		}
		return out
	}

	jobs := make([]worker.Job, len(raw))
	for i, r := range raw {
		jobs[i] = &paragraphJob{index: i, raw: r}
	}

	// The jobs never block, so the pool always runs to completion
	for _, res := range worker.NewPool(a.workers).Run(context.Background(), jobs) {
		pr := res.(*paragraphResult)
		out[pr.index] = pr.paragraph
	}
	return out
}

// analyzeParagraph produces the initial, per-paragraph view of one input
func analyzeParagraph(r rawParagraph) model.Paragraph {
	cls := classify.Classify(r.Text)

	texts := segment.Split(r.Text)
	sentences := make([]model.Sentence, 0, len(texts))
	for _, s := range texts {
		if strings.TrimSpace(s) == "" {
			continue
		}
		sentences = append(sentences, model.Sentence{
			ID:   fmt.Sprintf("%s-s%d", r.ID, len(sentences)+1),
			Text: s,
		})
	}

	return model.Paragraph{
		ID:            r.ID,
		Text:          r.Text,
		StructuralTag: cls.Tag,
		ArgumentRole:  cls.Role,
		Sentences:     sentences,
	}
}

// paragraphJob runs analyzeParagraph on the worker pool
type paragraphJob struct {
	index int
	raw   rawParagraph
}

func (j *paragraphJob) Execute(ctx context.Context) worker.Result {
	return &paragraphResult{index: j.index, paragraph: analyzeParagraph(j.raw)}
}

type paragraphResult struct {
	index     int
	paragraph model.Paragraph
}

func (r *paragraphResult) GetError() error {
	return nil
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
