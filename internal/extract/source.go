// Package extract turns files and web pages into ordered paragraph text plus
// source metadata, ready for structure analysis.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without an extractor
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoText is returned when a document yields no paragraphs
	ErrNoText = errors.New("no text content found")

	// ErrDisallowedByRobots is returned when robots.txt forbids fetching a URL
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")
)

// Source is extracted document content
type Source struct {
	Paragraphs []string
	Metadata   map[string]any
}

// FromFile extracts a local file, choosing the extractor by extension
func FromFile(path string) (*Source, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case "", ".txt", ".md", ".markdown", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return FromText(string(data), fileMetadata(path, string(data))), nil

	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		src, err := FromHTML(f, "")
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		src.Metadata["source_path"] = path
		src.Metadata["filename"] = filepath.Base(path)
		return src, nil

	case ".pdf":
		return FromPDF(path)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// IsURL reports whether target is an http(s) URL rather than a file path
func IsURL(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Loader resolves analysis targets: URLs through a Fetcher, everything else from disk
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a loader. A nil fetcher makes URL targets an error.
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load extracts the document at target
func (l *Loader) Load(ctx context.Context, target string) (*Source, error) {
	if IsURL(target) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("fetch %s: URL loading is not configured", target)
		}
		return l.fetcher.Fetch(ctx, target)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FromFile(target)
}
