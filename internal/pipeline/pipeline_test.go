package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/docstruct/internal/llm"
	"github.com/ppiankov/docstruct/internal/model"
)

const essayText = `The Case for Density

Dense cities reduce emissions per person because residents drive less, live in smaller homes that need less energy, and share infrastructure such as water, power and transit lines that would otherwise be duplicated across sprawling suburbs at great cost.

Transit ridership rises sharply once enough homes sit within walking distance of a station, which in turn justifies more frequent service and shorter waits.

In conclusion, density works.`

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail {
		return nil, errors.New("provider down")
	}
	if req.JSON {
		return &llm.CompletionResponse{Text: `{"structural_tag": "POINT", "argument_role": "SUPPORTING", "gist": "Density helps."}`}, nil
	}
	return &llm.CompletionResponse{Text: "Refined summary."}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.LLM.Retries = 1
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipeline_RunHeuristicOnly(t *testing.T) {
	p, err := NewPipeline(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.Enricher() != nil {
		t.Error("expected enrichment to be disabled without a provider")
	}

	path := writeFile(t, "essay.txt", essayText)
	result, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	doc := result.Document
	if len(doc.Paragraphs) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(doc.Paragraphs))
	}
	if doc.Title() != "The Case for Density" {
		t.Errorf("unexpected title %q", doc.Title())
	}
	if doc.ArgumentTree.Thesis.ID != doc.Paragraphs[1].ID {
		t.Errorf("expected second paragraph as thesis, got %q", doc.ArgumentTree.Thesis.ID)
	}
	if result.Enrichment != nil || result.Refined {
		t.Error("expected no enrichment or refinement")
	}
	if !strings.HasPrefix(result.Transcript, "# The Case for Density\n") {
		t.Errorf("unexpected transcript:\n%s", result.Transcript)
	}
	if !strings.HasSuffix(result.Transcript, "## Conclusion\nIn conclusion, density works.") {
		t.Errorf("expected conclusion section, got:\n%s", result.Transcript)
	}
	if result.Synthesis != result.Transcript {
		t.Error("expected synthesis to equal the transcript")
	}
}

func TestPipeline_RunWithProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Refine = true
	provider := &fakeProvider{}

	p, err := NewPipelineWithProvider(cfg, provider, nil)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider: %v", err)
	}

	result, err := p.Run(context.Background(), writeFile(t, "essay.txt", essayText))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Enrichment == nil || result.Enrichment.Enriched != 4 {
		t.Fatalf("expected 4 enriched paragraphs, got %+v", result.Enrichment)
	}
	for _, para := range result.Document.Paragraphs {
		if para.Gist != "Density helps." {
			t.Errorf("paragraph %s: unexpected gist %q", para.ID, para.Gist)
		}
	}
	if !strings.Contains(result.Transcript, "* ✓ Density helps.") {
		t.Errorf("expected enriched key points, got:\n%s", result.Transcript)
	}
	if !result.Refined || result.Synthesis != "Refined summary." {
		t.Errorf("expected refined synthesis, got %q", result.Synthesis)
	}
}

func TestPipeline_ProviderFailureIsNotFatal(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Refine = true

	p, err := NewPipelineWithProvider(cfg, &fakeProvider{fail: true}, nil)
	if err != nil {
		t.Fatalf("NewPipelineWithProvider: %v", err)
	}

	result, err := p.Run(context.Background(), writeFile(t, "essay.txt", essayText))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Enrichment.Failed != 4 {
		t.Errorf("expected 4 failed paragraphs, got %+v", result.Enrichment)
	}
	if result.Refined || result.Synthesis != result.Transcript {
		t.Error("expected synthesis to fall back to the transcript")
	}
	if len(result.Warnings) != 5 {
		t.Errorf("expected 4 enrichment warnings and 1 refinement warning, got %v", result.Warnings)
	}
}

func TestPipeline_RunURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Remote Essay</title></head><body><article>
<p>First paragraph of the remote essay.</p>
<p>Second paragraph of the remote essay.</p>
</article></body></html>`))
	}))
	defer server.Close()

	p, err := NewPipeline(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	result, err := p.Run(context.Background(), server.URL+"/essay")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Document.Paragraphs) != 2 {
		t.Errorf("expected 2 paragraphs, got %d", len(result.Document.Paragraphs))
	}
	if result.Document.Title() != "Remote Essay" {
		t.Errorf("unexpected title %q", result.Document.Title())
	}
	if result.Document.MetadataString("source_url", "") != server.URL+"/essay" {
		t.Errorf("expected source_url metadata, got %v", result.Document.Metadata)
	}
}

func TestPipeline_RunMissingFile(t *testing.T) {
	p, err := NewPipeline(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	_, err = p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestNewPipeline_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "mystery"

	if _, err := NewPipeline(cfg, nil); !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestPipeline_RunBatch(t *testing.T) {
	p, err := NewPipeline(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	good := writeFile(t, "essay.txt", essayText)
	other := writeFile(t, "notes.md", "Short Notes\n\nOne idea worth keeping.")
	missing := filepath.Join(t.TempDir(), "missing.txt")

	results := p.RunBatch(context.Background(), []string{good, missing, other}, 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil || results[0].Value.Document.Title() != "The Case for Density" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Error == nil {
		t.Error("expected error for missing file")
	}
	if results[2].Error != nil || results[2].Value.Document.Title() != "Short Notes" {
		t.Errorf("unexpected third result: %+v", results[2])
	}

	list := writeFile(t, "targets.txt", "# essays\n"+good+"\n"+good+"\n")
	fromFile, err := p.RunBatchFile(context.Background(), list, 2)
	if err != nil {
		t.Fatalf("RunBatchFile: %v", err)
	}
	if len(fromFile) != 1 {
		t.Errorf("expected duplicate targets to collapse, got %d results", len(fromFile))
	}
}
