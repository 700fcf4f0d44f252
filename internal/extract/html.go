package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/docstruct/internal/extract/adapters"
)

var registry = adapters.NewRegistry()

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0[^.]`),
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// FromHTML extracts block-level text (paragraphs, headings, list items,
// quotes, preformatted text) from the content root of an HTML page. pageURL
// selects the site adapter and may be empty.
func FromHTML(r io.Reader, pageURL string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	adapter := registry.FindAdapter(pageURL, "text/html")
	root := adapter.ContentRoot(doc)

	var paragraphs []string
	extractBlocks(root, adapter, &paragraphs)

	if len(paragraphs) == 0 {
		if text := collectText(root, adapter); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	if len(paragraphs) == 0 {
		return nil, ErrNoText
	}

	metadata := map[string]any{
		"adapter": adapter.Name(),
	}
	if title := adapter.Title(findTitle(doc)); title != "" {
		metadata["title"] = title
	}

	return &Source{Paragraphs: paragraphs, Metadata: metadata}, nil
}

// skipElement reports boilerplate that never contributes paragraphs
func skipElement(n *html.Node, adapter adapters.Adapter) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Template, atom.Svg:
		return true
	}
	return hasHiddenStyle(n) || adapter.Skip(n)
}

// extractBlocks walks the tree in document order, emitting one paragraph per block element
func extractBlocks(n *html.Node, adapter adapters.Adapter, paragraphs *[]string) {
	if skipElement(n, adapter) {
		return
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.Li, atom.Blockquote, atom.Pre:
			if text := collectText(n, adapter); text != "" {
				*paragraphs = append(*paragraphs, text)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractBlocks(c, adapter, paragraphs)
	}
}

// collectText returns the visible text of a subtree with whitespace collapsed
func collectText(n *html.Node, adapter adapters.Adapter) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipElement(n, adapter) {
			return
		}
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Td, atom.Th, atom.Tr, atom.Dd, atom.Dt,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

// findTitle extracts the <title> text
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
