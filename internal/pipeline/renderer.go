package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/docstruct/internal/model"
)

// StdoutPath selects standard output instead of a file
const StdoutPath = "-"

const previewRunes = 80

// RenderJSON writes the document snapshot as indented JSON
func RenderJSON(doc *model.Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return writeOutput(path, append(data, '\n'))
}

// RenderMarkdown writes a transcript or synthesis
func RenderMarkdown(text, path string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return writeOutput(path, []byte(text))
}

// RenderSummary prints a human-readable overview of doc
func RenderSummary(w io.Writer, doc *model.Document) {
	text := 0
	for _, p := range doc.Paragraphs {
		text += len([]rune(p.Text))
	}

	source := doc.MetadataString("source_url", doc.MetadataString("source_path", "unknown"))

	fmt.Fprintf(w, "Title:       %s\n", doc.Title())
	fmt.Fprintf(w, "Source:      %s\n", source)
	fmt.Fprintf(w, "Paragraphs:  %d\n", len(doc.Paragraphs))
	fmt.Fprintf(w, "Characters:  %d\n", text)
	fmt.Fprintln(w)

	counts := doc.CountByTag()
	fmt.Fprintln(w, "Structural tags:")
	for _, tag := range model.AllStructuralTags() {
		if n := counts[tag]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", tag, n)
		}
	}
	fmt.Fprintln(w)

	tree := doc.ArgumentTree
	fmt.Fprintf(w, "Thesis:      %s\n", preview(tree.Thesis))
	fmt.Fprintf(w, "Points:      %d\n", len(tree.Points))
	fmt.Fprintf(w, "Conclusion:  %s\n", preview(tree.Conclusion))
}

func preview(s model.Slot) string {
	if s.IsPlaceholder() {
		return "(none)"
	}
	runes := []rune(s.Text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return s.Text
}

// writeOutput writes data to path, creating parent directories, or to stdout for "-"
func writeOutput(path string, data []byte) error {
	if path == StdoutPath {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
