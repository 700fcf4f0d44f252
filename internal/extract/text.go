package extract

import (
	"path/filepath"
	"strings"
)

// titleMaxChars is the exclusive upper bound for a first line to count as a title
const titleMaxChars = 100

// FromText splits plain text into paragraphs on blank lines. Lines inside a
// paragraph keep their line breaks. Metadata is copied, nil means empty.
func FromText(text string, metadata map[string]any) *Source {
	src := &Source{
		Paragraphs: []string{},
		Metadata:   make(map[string]any, len(metadata)),
	}
	for k, v := range metadata {
		src.Metadata[k] = v
	}

	var current []string
	flush := func() {
		if len(current) > 0 {
			src.Paragraphs = append(src.Paragraphs, strings.TrimSpace(strings.Join(current, "\n")))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return src
}

// fileMetadata describes a text file: its path, name and a title when the
// first line looks like one
func fileMetadata(path, text string) map[string]any {
	metadata := map[string]any{
		"source_path": path,
		"filename":    filepath.Base(path),
	}
	if title, ok := titleFromFirstLine(text); ok {
		metadata["title"] = title
	}
	return metadata
}

// titleFromFirstLine returns the first line when it is short and not a sentence
func titleFromFirstLine(text string) (string, bool) {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	first = strings.TrimSpace(first)
	if first == "" || len(first) >= titleMaxChars || strings.HasSuffix(first, ".") {
		return "", false
	}
	return first, true
}
