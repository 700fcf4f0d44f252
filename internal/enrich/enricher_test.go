package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/docstruct/internal/analyze"
	"github.com/ppiankov/docstruct/internal/cache"
	"github.com/ppiankov/docstruct/internal/llm"
	"github.com/ppiankov/docstruct/internal/model"
)

const pointJSON = `{"structural_tag": "POINT", "argument_role": "SUPPORTING", "gist": "First gist. Second gist."}`

// mockProvider answers completions with a caller-supplied function
type mockProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	respond func(call int, req llm.CompletionRequest) (string, error)
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()

	text, err := m.respond(call, req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: text, Model: "mock-1"}, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("lorem ", n))
}

func testDocument(paragraphs ...string) *model.Document {
	return analyze.New(analyze.Options{}).Analyze(paragraphs, map[string]any{"title": "Essay"})
}

func essay() *model.Document {
	return testDocument(
		"Introduction",
		words(40),
		words(25),
		words(25),
		"In conclusion the argument holds overall.",
	)
}

func newTestEnricher(t *testing.T, p llm.Provider, opts Options) *Enricher {
	t.Helper()
	opts.Provider = p
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without provider")
	}
}

func TestEnrich_Success(t *testing.T) {
	provider := &mockProvider{respond: func(int, llm.CompletionRequest) (string, error) {
		return pointJSON, nil
	}}
	e := newTestEnricher(t, provider, Options{Workers: 2, Attempts: 1})

	doc := essay()
	before := doc.Clone()

	out, report, err := e.Enrich(context.Background(), doc)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if report.Enriched != 4 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if provider.callCount() != 4 {
		t.Errorf("expected 4 provider calls, got %d", provider.callCount())
	}

	if out.Paragraphs[0].StructuralTag != model.TagIntroduction || out.Paragraphs[0].Gist != "" {
		t.Errorf("expected short paragraph untouched, got %+v", out.Paragraphs[0])
	}
	for _, p := range out.Paragraphs[1:] {
		if p.StructuralTag != model.TagPoint || p.ArgumentRole != model.RoleSupporting {
			t.Errorf("paragraph %s: expected point/supporting, got %s/%s", p.ID, p.StructuralTag, p.ArgumentRole)
		}
		if len(p.GistSentences) != 2 || p.GistSentences[1].Text != "Second gist." {
			t.Errorf("paragraph %s: unexpected gist sentences %+v", p.ID, p.GistSentences)
		}
		if p.GistSentences[0].ImageTag != "" {
			t.Errorf("paragraph %s: expected no image tag", p.ID)
		}
	}

	// Topology is kept; only the point gists change
	if len(out.ArgumentTree.Points) != len(before.ArgumentTree.Points) {
		t.Fatalf("expected %d points, got %d", len(before.ArgumentTree.Points), len(out.ArgumentTree.Points))
	}
	for i, point := range out.ArgumentTree.Points {
		if point.SourceParagraphID != before.ArgumentTree.Points[i].SourceParagraphID {
			t.Errorf("point %d moved", i)
		}
		if point.Gist != "First gist. Second gist." {
			t.Errorf("expected enriched gist, got %q", point.Gist)
		}
	}
	if out.ArgumentTree.Thesis != before.ArgumentTree.Thesis {
		t.Error("expected thesis slot unchanged")
	}

	if doc.Paragraphs[2].StructuralTag != before.Paragraphs[2].StructuralTag || doc.Paragraphs[2].Gist != "" {
		t.Error("expected input document to be unmodified")
	}
}

func TestEnrich_PromptContext(t *testing.T) {
	provider := &mockProvider{respond: func(int, llm.CompletionRequest) (string, error) {
		return pointJSON, nil
	}}
	e := newTestEnricher(t, provider, Options{Attempts: 1})

	if _, _, err := e.Enrich(context.Background(), testDocument(words(40))); err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	prompt := provider.prompts[0]
	for _, want := range []string{`"Essay"`, "at the beginning", "has 40 words", "at most 1 sentence(s)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestEnrich_FailureKeepsHeuristicTags(t *testing.T) {
	provider := &mockProvider{respond: func(int, llm.CompletionRequest) (string, error) {
		return "", errors.New("boom")
	}}
	e := newTestEnricher(t, provider, Options{Workers: 3, Attempts: 2})

	doc := essay()
	out, report, err := e.Enrich(context.Background(), doc)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if report.Failed != 4 || report.Enriched != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(report.Warnings) != 4 {
		t.Errorf("expected one warning per failed paragraph, got %v", report.Warnings)
	}
	if provider.callCount() != 8 {
		t.Errorf("expected 2 attempts per paragraph, got %d calls", provider.callCount())
	}
	for i, p := range out.Paragraphs {
		if p.StructuralTag != doc.Paragraphs[i].StructuralTag || p.Gist != "" {
			t.Errorf("paragraph %s: expected heuristic result, got %+v", p.ID, p)
		}
	}
}

func TestEnrich_RetriesInvalidResponse(t *testing.T) {
	provider := &mockProvider{respond: func(call int, _ llm.CompletionRequest) (string, error) {
		if call == 1 {
			return "I think it is a point.", nil
		}
		return "```json\n" + pointJSON + "\n```", nil
	}}
	e := newTestEnricher(t, provider, Options{Attempts: 3})

	out, report, err := e.Enrich(context.Background(), testDocument(words(40)))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if report.Enriched != 1 || provider.callCount() != 2 {
		t.Errorf("expected success on second attempt, got report %+v after %d calls", report, provider.callCount())
	}
	if out.Paragraphs[0].StructuralTag != model.TagPoint {
		t.Errorf("expected point, got %s", out.Paragraphs[0].StructuralTag)
	}
}

func TestEnrich_UsesCache(t *testing.T) {
	provider := &mockProvider{respond: func(int, llm.CompletionRequest) (string, error) {
		return pointJSON, nil
	}}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := newTestEnricher(t, provider, Options{Cache: c, Model: "m", Attempts: 1})

	if _, _, err := e.Enrich(context.Background(), essay()); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	first := provider.callCount()

	out, report, err := e.Enrich(context.Background(), essay())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if provider.callCount() != first {
		t.Errorf("expected cached run to make no calls, got %d more", provider.callCount()-first)
	}
	if report.CacheHits != 4 || report.Enriched != 4 {
		t.Errorf("unexpected report: %+v", report)
	}
	if out.Paragraphs[1].Gist != "First gist. Second gist." {
		t.Errorf("unexpected cached gist %q", out.Paragraphs[1].Gist)
	}
}

func TestEnrich_ImageTags(t *testing.T) {
	provider := &mockProvider{respond: func(_ int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "visual description") {
			return `"a red apple on a desk"`, nil
		}
		return pointJSON, nil
	}}
	e := newTestEnricher(t, provider, Options{Attempts: 1, ImageTags: true})

	out, _, err := e.Enrich(context.Background(), testDocument(words(40)))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	sentences := out.Paragraphs[0].GistSentences
	if len(sentences) != 2 {
		t.Fatalf("expected 2 gist sentences, got %d", len(sentences))
	}
	for _, s := range sentences {
		if s.ImageTag != "a red apple on a desk" {
			t.Errorf("unexpected image tag %q", s.ImageTag)
		}
	}
	if provider.callCount() != 3 {
		t.Errorf("expected 1 analysis and 2 image calls, got %d", provider.callCount())
	}
}

func TestEnrich_ImageTagFailureIsWarning(t *testing.T) {
	provider := &mockProvider{respond: func(_ int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "visual description") {
			return "", errors.New("image service down")
		}
		return pointJSON, nil
	}}
	e := newTestEnricher(t, provider, Options{Attempts: 1, ImageTags: true})

	out, report, err := e.Enrich(context.Background(), testDocument(words(40)))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if report.Enriched != 1 || len(report.Warnings) != 2 {
		t.Errorf("expected enrichment with two image warnings, got %+v", report)
	}
	if out.Paragraphs[0].GistSentences[0].ImageTag != "" {
		t.Error("expected empty image tag after failure")
	}
}

func TestEnrich_Canceled(t *testing.T) {
	provider := &mockProvider{respond: func(int, llm.CompletionRequest) (string, error) {
		return pointJSON, nil
	}}
	e := newTestEnricher(t, provider, Options{Attempts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := e.Enrich(ctx, essay()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPositionContext(t *testing.T) {
	want := []string{"beginning", "beginning", "middle", "end", "end"}
	for i, w := range want {
		if got := positionContext(i, len(want)); got != w {
			t.Errorf("positionContext(%d, 5) = %s, want %s", i, got, w)
		}
	}
}

func TestMaxGistSentences(t *testing.T) {
	tests := map[int]int{0: 1, 49: 1, 100: 2, 260: 5}
	for words, want := range tests {
		if got := maxGistSentences(words); got != want {
			t.Errorf("maxGistSentences(%d) = %d, want %d", words, got, want)
		}
	}
}
