// Package synth turns an analyzed document into a readable summary: a
// Markdown transcript built from paragraph gists and tags, optionally
// rewritten into prose by an LLM.
package synth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/docstruct/internal/model"
)

// EmptyTranscript is the transcript of a document without paragraphs
const EmptyTranscript = "No content to summarize."

const (
	minWords          = 5 // Shorter paragraphs are titles or fragments
	maxThesisSections = 2
)

// Transcript renders doc as a Markdown outline with Main Thesis, Key Points,
// Supporting Evidence and Conclusion sections. Empty sections are omitted.
// Each entry uses the paragraph gist, or its first sentence when no gist is set.
func Transcript(doc *model.Document) string {
	if doc == nil || len(doc.Paragraphs) == 0 {
		return EmptyTranscript
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title())

	var thesis []*model.Paragraph
	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		if model.WordCount(p.Text) < minWords {
			continue
		}
		if p.StructuralTag == model.TagThesis || mentions(p.Text, "abstract", "introduction") {
			thesis = append(thesis, p)
		}
	}
	if len(thesis) > 0 {
		b.WriteString("## Main Thesis\n")
		for _, p := range thesis[:min(len(thesis), maxThesisSections)] {
			b.WriteString(gist(p) + "\n")
		}
		b.WriteString("\n")
	}

	var points []string
	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		if model.WordCount(p.Text) < minWords || slices.Contains(thesis, p) {
			continue
		}
		if p.StructuralTag != model.TagPoint || p.ArgumentRole == model.RoleUnknown {
			continue
		}
		switch p.ArgumentRole {
		case model.RoleCounterpoint:
			points = append(points, "* Counterpoint: "+gist(p))
		case model.RoleSupporting:
			points = append(points, "* ✓ "+gist(p))
		default:
			points = append(points, "* "+gist(p))
		}
	}
	writeSection(&b, "Key Points", points)

	var evidence []string
	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		if p.StructuralTag == model.TagExample || mentions(p.Text, "example") {
			evidence = append(evidence, "* "+gist(p))
		}
	}
	writeSection(&b, "Supporting Evidence", evidence)

	var conclusion []string
	for i := range doc.Paragraphs {
		p := &doc.Paragraphs[i]
		if p.StructuralTag == model.TagConclusion || mentions(p.Text, "conclusion", "in summary") {
			conclusion = append(conclusion, gist(p))
		}
	}
	if len(conclusion) > 0 {
		b.WriteString("## Conclusion\n")
		b.WriteString(strings.Join(conclusion, "\n"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func gist(p *model.Paragraph) string {
	if g := strings.TrimSpace(p.Gist); g != "" {
		return g
	}
	return p.Summary()
}

// mentions reports whether text contains any keyword, case-insensitively
func mentions(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
