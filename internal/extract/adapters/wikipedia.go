package adapters

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// wikipediaBoilerplate are classes of non-prose blocks inside article content
var wikipediaBoilerplate = []string{
	"reference", "reflist", "references", "mw-editsection", "navbox", "infobox",
	"toc", "hatnote", "metadata", "thumb", "sidebar", "mw-empty-elt", "noprint",
}

// WikipediaAdapter extracts article prose from Wikipedia pages
type WikipediaAdapter struct {
	BaseAdapter
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{}
}

func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	return strings.Contains(rawURL, "wikipedia.org")
}

// ContentRoot returns the parser output div, or the document when absent
func (a *WikipediaAdapter) ContentRoot(doc *html.Node) *html.Node {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Div &&
			(a.HasClass(n, "mw-parser-output") || a.GetAttribute(n, "id") == "mw-content-text")
	})
	if content == nil {
		return doc
	}
	return content
}

func (a *WikipediaAdapter) Skip(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.Sup || n.DataAtom == atom.Table {
		return true
	}
	return a.HasAnyClass(n, wikipediaBoilerplate...)
}

// Title strips the " - Wikipedia" suffix
func (a *WikipediaAdapter) Title(raw string) string {
	if i := strings.LastIndex(raw, " - Wikipedia"); i > 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}
