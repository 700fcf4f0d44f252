package pipeline

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/docstruct/internal/model"
)

//go:embed templates/comparison.html
var comparisonHTML string

var (
	comparisonTemplate = template.Must(template.New("comparison").Parse(comparisonHTML))

	// "## Title" or a line underlined with - or =
	sectionPattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+)$|^(.+)\n[-=]+[ \t]*$`)
)

// Section is a titled block of text
type Section struct {
	Title   string
	Content string
}

// ComparisonStats compares original and synthesis length
type ComparisonStats struct {
	OriginalWords  int
	SynthesisWords int
	ReductionPct   float64 // Rounded to one decimal
}

type comparisonView struct {
	Title     string
	Source    string
	Stats     ComparisonStats
	Original  []Section
	Synthesis []Section
	JSON      string
}

type debugParagraph struct {
	ID            string               `json:"id"`
	Text          string               `json:"text"`
	StructuralTag model.StructuralTag  `json:"structural_tag"`
	ArgumentRole  model.ArgumentRole   `json:"argument_role"`
	Gist          string               `json:"gist"`
	WordCount     int                  `json:"word_count"`
	GistSentences []model.GistSentence `json:"gist_sentences"`
}

// RenderComparison writes a side-by-side HTML view of the original document
// and its synthesis, with length statistics and a JSON debug view
func RenderComparison(doc *model.Document, synthesis, path string) error {
	html, err := ComparisonHTML(doc, synthesis)
	if err != nil {
		return err
	}
	return writeOutput(path, html)
}

// ComparisonHTML renders the comparison page
func ComparisonHTML(doc *model.Document, synthesis string) ([]byte, error) {
	original := OriginalText(doc)

	debug, err := debugJSON(doc, synthesis)
	if err != nil {
		return nil, err
	}

	view := comparisonView{
		Title:     doc.MetadataString("title", "Untitled"),
		Source:    doc.MetadataString("source_url", doc.MetadataString("source_path", "Unknown")),
		Stats:     Stats(original, synthesis),
		Original:  SplitSections(original),
		Synthesis: SplitSections(synthesis),
		JSON:      debug,
	}

	var buf bytes.Buffer
	if err := comparisonTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render comparison: %w", err)
	}
	return buf.Bytes(), nil
}

// OriginalText joins paragraph texts with blank lines
func OriginalText(doc *model.Document) string {
	texts := make([]string, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

// Stats counts words on both sides and the relative reduction
func Stats(original, synthesis string) ComparisonStats {
	s := ComparisonStats{
		OriginalWords:  model.WordCount(original),
		SynthesisWords: model.WordCount(synthesis),
	}
	if s.OriginalWords > 0 {
		ratio := 1 - float64(s.SynthesisWords)/float64(s.OriginalWords)
		s.ReductionPct = math.Round(ratio*1000) / 10
	}
	return s
}

// SplitSections splits text on Markdown headers. Text before the first header
// becomes an "Introduction" section.
func SplitSections(text string) []Section {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)

	var sections []Section
	introEnd := len(text)
	if len(matches) > 0 {
		introEnd = matches[0][0]
	}
	if intro := strings.TrimSpace(text[:introEnd]); intro != "" {
		sections = append(sections, Section{Title: "Introduction", Content: intro})
	}

	for i, m := range matches {
		title := ""
		if m[2] >= 0 {
			title = text[m[2]:m[3]]
		} else {
			title = text[m[4]:m[5]]
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, Section{
			Title:   strings.TrimSpace(title),
			Content: strings.TrimSpace(text[m[1]:end]),
		})
	}

	return sections
}

func debugJSON(doc *model.Document, synthesis string) (string, error) {
	paragraphs := make([]debugParagraph, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		gists := p.GistSentences
		if gists == nil {
			gists = []model.GistSentence{}
		}
		paragraphs[i] = debugParagraph{
			ID:            p.ID,
			Text:          p.Text,
			StructuralTag: p.StructuralTag,
			ArgumentRole:  p.ArgumentRole,
			Gist:          p.Gist,
			WordCount:     model.WordCount(p.Text),
			GistSentences: gists,
		}
	}

	data, err := json.MarshalIndent(map[string]any{
		"metadata":   doc.Metadata,
		"paragraphs": paragraphs,
		"synthesis":  synthesis,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal debug view: %w", err)
	}
	return string(data), nil
}
