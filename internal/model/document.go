package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GistMaxRunes is the maximum length of an argument point gist before truncation
const GistMaxRunes = 100

// Document is the structured representation of an analyzed document
type Document struct {
	Metadata     map[string]any `json:"metadata"`      // Passthrough from the extractor
	Paragraphs   []Paragraph    `json:"paragraphs"`    // In input order
	ArgumentTree ArgumentTree   `json:"argument_tree"` // Built once after classification
}

// Paragraph is a single paragraph with its classification and sentences
type Paragraph struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	StructuralTag StructuralTag  `json:"structural_tag"`
	ArgumentRole  ArgumentRole   `json:"argument_role"`
	Sentences     []Sentence     `json:"sentences"`
	Gist          string         `json:"gist,omitempty"`           // Set by enrichment only
	GistSentences []GistSentence `json:"gist_sentences,omitempty"` // Set by enrichment only
}

// Sentence is a slice of a paragraph's original text
type Sentence struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// GistSentence is one sentence of an enrichment gist with an optional image description
type GistSentence struct {
	Text     string `json:"text"`
	ImageTag string `json:"image_tag,omitempty"`
}

// ArgumentTree summarizes the document argument: one thesis, ordered points, one conclusion
type ArgumentTree struct {
	Thesis     Slot            `json:"thesis"`
	Points     []ArgumentPoint `json:"points"`
	Conclusion Slot            `json:"conclusion"`
}

// Slot is a thesis or conclusion entry; Text is empty for a placeholder
type Slot struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// IsPlaceholder reports whether the slot was filled without a source paragraph
func (s Slot) IsPlaceholder() bool {
	return s.Text == ""
}

// ArgumentPoint is a supporting point of the argument tree
type ArgumentPoint struct {
	ID                string          `json:"id"`
	Gist              string          `json:"gist"`
	SourceParagraphID string          `json:"source_paragraph_id"`
	SupportingPoints  []ArgumentPoint `json:"supporting_points"`
	CounterPoints     []ArgumentPoint `json:"counter_points"`
}

// MarshalJSON always emits the nested point lists, even when empty
func (p ArgumentPoint) MarshalJSON() ([]byte, error) {
	type alias ArgumentPoint
	out := alias(p)
	if out.SupportingPoints == nil {
		out.SupportingPoints = []ArgumentPoint{}
	}
	if out.CounterPoints == nil {
		out.CounterPoints = []ArgumentPoint{}
	}
	return json.Marshal(out)
}

// MarshalJSON always emits the sentence list, even when empty
func (p Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	out := alias(p)
	if out.Sentences == nil {
		out.Sentences = []Sentence{}
	}
	return json.Marshal(out)
}

// MarshalJSON emits empty collections instead of null
func (t ArgumentTree) MarshalJSON() ([]byte, error) {
	type alias ArgumentTree
	out := alias(t)
	if out.Points == nil {
		out.Points = []ArgumentPoint{}
	}
	return json.Marshal(out)
}

// MarshalJSON emits empty collections instead of null
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	out := alias(d)
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	if out.Paragraphs == nil {
		out.Paragraphs = []Paragraph{}
	}
	return json.Marshal(out)
}

// Title returns the metadata title or a default
func (d *Document) Title() string {
	return d.MetadataString("title", "Untitled Document")
}

// MetadataString returns a metadata value as a string, or def when missing or empty
func (d *Document) MetadataString(key, def string) string {
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

// Paragraph returns the paragraph with the given ID
func (d *Document) Paragraph(id string) (*Paragraph, bool) {
	for i := range d.Paragraphs {
		if d.Paragraphs[i].ID == id {
			return &d.Paragraphs[i], true
		}
	}
	return nil, false
}

// CountByTag counts paragraphs per structural tag
func (d *Document) CountByTag() map[StructuralTag]int {
	counts := make(map[StructuralTag]int)
	for _, p := range d.Paragraphs {
		counts[p.StructuralTag]++
	}
	return counts
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	out := &Document{
		Metadata:   make(map[string]any, len(d.Metadata)),
		Paragraphs: make([]Paragraph, len(d.Paragraphs)),
	}
	for k, v := range d.Metadata {
		out.Metadata[k] = v
	}
	for i, p := range d.Paragraphs {
		out.Paragraphs[i] = p.Clone()
	}
	out.ArgumentTree = d.ArgumentTree.Clone()
	return out
}

// Clone returns a deep copy of the paragraph
func (p Paragraph) Clone() Paragraph {
	out := p
	if p.Sentences != nil {
		out.Sentences = append([]Sentence(nil), p.Sentences...)
	}
	if p.GistSentences != nil {
		out.GistSentences = append([]GistSentence(nil), p.GistSentences...)
	}
	return out
}

// Clone returns a deep copy of the tree
func (t ArgumentTree) Clone() ArgumentTree {
	out := t
	out.Points = clonePoints(t.Points)
	return out
}

func clonePoints(points []ArgumentPoint) []ArgumentPoint {
	if points == nil {
		return nil
	}
	out := make([]ArgumentPoint, len(points))
	for i, p := range points {
		out[i] = p
		out[i].SupportingPoints = clonePoints(p.SupportingPoints)
		out[i].CounterPoints = clonePoints(p.CounterPoints)
	}
	return out
}

// Summary returns the first sentence of the paragraph, or its full text when unsplit
func (p Paragraph) Summary() string {
	if len(p.Sentences) > 0 {
		return p.Sentences[0].Text
	}
	return p.Text
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TruncateGist shortens text to GistMaxRunes runes, appending "..." when cut
func TruncateGist(text string) string {
	runes := []rune(text)
	if len(runes) <= GistMaxRunes {
		return text
	}
	return string(runes[:GistMaxRunes]) + "..."
}
