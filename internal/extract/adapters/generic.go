package adapters

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GenericAdapter is the fallback adapter for unknown sites
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

func (a *GenericAdapter) Name() string {
	return "generic"
}

func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// ContentRoot prefers <article>, then <main>, then <body>
func (a *GenericAdapter) ContentRoot(doc *html.Node) *html.Node {
	for _, tag := range []atom.Atom{atom.Article, atom.Main, atom.Body} {
		if n := a.FindElement(doc, tag); n != nil {
			return n
		}
	}
	return doc
}

func (a *GenericAdapter) Skip(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Aside, atom.Form:
		return true
	}
	return a.GetAttribute(n, "role") == "navigation" || a.GetAttribute(n, "aria-hidden") == "true"
}

func (a *GenericAdapter) Title(raw string) string {
	return raw
}
