// Package adapters picks the content region of a web page per site so that
// navigation and reference boilerplate do not become document paragraphs.
package adapters

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Adapter defines site-specific HTML handling
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// ContentRoot returns the node that holds the main text
	ContentRoot(doc *html.Node) *html.Node

	// Skip reports whether a subtree is boilerplate
	Skip(n *html.Node) bool

	// Title cleans the page title
	Title(raw string) string
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}
	registry.Register(NewWikipediaAdapter())
	registry.generic = NewGenericAdapter()
	return registry
}

// Register registers a new adapter; earlier registrations win
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// BaseAdapter provides common DOM helpers
type BaseAdapter struct{}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// HasAnyClass checks if a node has at least one of the classes
func (b *BaseAdapter) HasAnyClass(n *html.Node, classNames ...string) bool {
	for _, c := range classNames {
		if b.HasClass(n, c) {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node in document order matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := b.FindFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

// FindElement finds the first element with the given tag
func (b *BaseAdapter) FindElement(n *html.Node, a atom.Atom) *html.Node {
	return b.FindFirst(n, func(node *html.Node) bool {
		return node.Type == html.ElementNode && node.DataAtom == a
	})
}
