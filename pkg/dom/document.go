// Package dom wraps a parsed HTML tree as a mutable rendering surface.
//
// A Document hands out *html.Node text nodes as stable unit identities. The
// tree may be mutated from outside (nodes removed, text changed) between
// operations; callers that hold node pointers use Attached to decide whether
// a write still lands in the live document.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes set on elements by the page renderer from computed style.
// Inline style alone misses stylesheet and script driven hiding.
const (
	// HiddenAttr marks an element the browser removed from view: computed
	// display none or zero opacity.
	HiddenAttr = "data-monomind-hidden"
	// VisibilityAttr carries an element's computed visibility where it
	// differs from its parent's.
	VisibilityAttr = "data-monomind-visibility"
)

// Document is one page lifetime: a parsed tree plus a teardown flag.
type Document struct {
	id     string
	url    string
	root   *html.Node
	closed atomic.Bool
}

// Parse reads HTML from r and builds a Document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// New wraps an already parsed tree.
func New(root *html.Node) *Document {
	return &Document{id: uuid.New().String(), root: root}
}

// WithURL records the address the document was loaded from.
func (d *Document) WithURL(url string) *Document {
	d.url = url
	return d
}

// ID returns the document's unique id.
func (d *Document) ID() string { return d.id }

// URL returns the address the document was loaded from, if known.
func (d *Document) URL() string { return d.url }

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element, or the root when the tree has none.
func (d *Document) Body() *html.Node {
	if body := findElement(d.root, atom.Body); body != nil {
		return body
	}
	return d.root
}

// Close marks the document as torn down. Subsequent SetText calls are no-ops.
func (d *Document) Close() {
	d.closed.Store(true)
}

// Alive reports whether the document has not been torn down.
func (d *Document) Alive() bool {
	return !d.closed.Load()
}

// Attached reports whether n is still reachable from the document root.
func (d *Document) Attached(n *html.Node) bool {
	if n == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// Text returns the content of a text node.
func Text(n *html.Node) string {
	if n == nil || n.Type != html.TextNode {
		return ""
	}
	return n.Data
}

// SetText replaces the content of text node n. It reports false without
// writing when the document is closed or n is no longer attached.
func (d *Document) SetText(n *html.Node, text string) bool {
	if !d.Alive() || n == nil || n.Type != html.TextNode || !d.Attached(n) {
		return false
	}
	n.Data = text
	return true
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Detach removes n from its parent.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Title returns the trimmed <title> text, if any.
func (d *Document) Title() string {
	title := findElement(d.root, atom.Title)
	if title == nil || title.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(Text(title.FirstChild))
}
