// Package selector walks a document and yields the text units eligible for
// rewriting, in document order.
package selector

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/html"
)

// DefaultExcludedTags are containers whose text is code, markup, form state
// or media rather than prose.
var DefaultExcludedTags = []string{
	"script", "style", "noscript", "template",
	"code", "pre", "kbd", "samp",
	"textarea", "input", "select", "option",
	"svg", "math", "iframe", "object",
}

// Unit is one rewritable text span. Node is its stable identity; Text is the
// content rendered at selection time.
type Unit struct {
	Node *html.Node
	Text string
}

// Options configures which containers are skipped.
type Options struct {
	// ExcludeTags adds tag names to DefaultExcludedTags.
	ExcludeTags []string
	// ExcludePatterns are glob patterns matched against "#id" and ".class"
	// of every ancestor element, e.g. "#cookie-*" or ".no-soften".
	ExcludePatterns []string
}

// Selector applies the inclusion rules. It holds no document state, so one
// Selector may be reused across documents and calls.
type Selector struct {
	excluded map[string]bool
	patterns []glob.Glob
}

// New builds a Selector from opts.
func New(opts Options) (*Selector, error) {
	s := &Selector{excluded: make(map[string]bool)}
	for _, tag := range DefaultExcludedTags {
		s.excluded[tag] = true
	}
	for _, tag := range opts.ExcludeTags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			s.excluded[tag] = true
		}
	}
	for _, p := range opts.ExcludePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, g)
	}
	return s, nil
}

// Default returns a Selector with only the default denylist.
func Default() *Selector {
	s, _ := New(Options{})
	return s
}

// Select returns the eligible text units under root in document order. It
// reads the tree as it is now; calling it again after mutation reflects the
// new state.
func (s *Selector) Select(root *html.Node) []Unit {
	if root == nil {
		return nil
	}

	// The nearest ancestor that declares visibility decides for root.
	vis := inherit
	for a := root.Parent; a != nil; a = a.Parent {
		if s.skipsSubtree(a) {
			return nil
		}
		if vis == inherit {
			vis = declaredVisibility(a)
		}
	}

	var units []Unit
	s.walk(root, vis, &units)
	return units
}

func (s *Selector) walk(n *html.Node, vis visibility, units *[]Unit) {
	switch n.Type {
	case html.TextNode:
		if vis != hidden && n.Parent != nil && strings.TrimSpace(n.Data) != "" {
			*units = append(*units, Unit{Node: n, Text: n.Data})
		}
		return
	case html.ElementNode:
		if s.skipsSubtree(n) {
			return
		}
		if v := declaredVisibility(n); v != inherit {
			vis = v
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, vis, units)
	}
}

// skipsSubtree reports whether nothing below element n may be selected.
func (s *Selector) skipsSubtree(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.excluded[strings.ToLower(n.Data)] {
		return true
	}
	if s.matchesPattern(n) {
		return true
	}
	return removedFromLayout(n)
}

func (s *Selector) matchesPattern(n *html.Node) bool {
	if len(s.patterns) == 0 {
		return false
	}
	var names []string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "id":
			if attr.Val != "" {
				names = append(names, "#"+attr.Val)
			}
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				names = append(names, "."+class)
			}
		}
	}
	for _, g := range s.patterns {
		for _, name := range names {
			if g.Match(name) {
				return true
			}
		}
	}
	return false
}
