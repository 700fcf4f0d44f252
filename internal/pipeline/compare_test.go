package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitSections(t *testing.T) {
	text := "Preamble line.\n\n# Essay\n\n## Key Points\n* one\n- two\n\nUnderlined\n==========\nBody text."

	got := SplitSections(text)
	want := []Section{
		{Title: "Introduction", Content: "Preamble line."},
		{Title: "Essay", Content: ""},
		{Title: "Key Points", Content: "* one\n- two"},
		{Title: "Underlined", Content: "Body text."},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSplitSections_NoHeaders(t *testing.T) {
	got := SplitSections("Just prose.\n\nMore prose.")
	if len(got) != 1 || got[0].Title != "Introduction" || got[0].Content != "Just prose.\n\nMore prose." {
		t.Errorf("unexpected sections %+v", got)
	}
	if len(SplitSections("   ")) != 0 {
		t.Error("expected no sections for blank text")
	}
}

func TestStats(t *testing.T) {
	s := Stats("one two three four five six", "one two")
	if s.OriginalWords != 6 || s.SynthesisWords != 2 || s.ReductionPct != 66.7 {
		t.Errorf("unexpected stats %+v", s)
	}
	if Stats("", "words here").ReductionPct != 0 {
		t.Error("expected zero reduction for empty original")
	}
}

func TestRenderComparison(t *testing.T) {
	doc := sampleDocument()
	doc.Paragraphs[2].Text = "A point with <script>alert(1)</script> markup."

	path := filepath.Join(t.TempDir(), "compare.html")
	if err := RenderComparison(doc, "# Essay\n\n## Key Points\n* A point.", path); err != nil {
		t.Fatalf("RenderComparison: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	for _, want := range []string{
		"<title>Document Comparison: Essay</title>",
		"/tmp/essay.txt",
		"<h3>Key Points</h3>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&#34;structural_tag&#34;: &#34;point&#34;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)") {
		t.Error("expected paragraph text to be escaped")
	}
}
