package selector

import (
	"strconv"
	"strings"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"
)

type visibility int

const (
	inherit visibility = iota
	visible
	hidden
)

// removedFromLayout reports whether element n hides its whole subtree:
// the hidden attribute, the renderer's hidden marker, display:none or a
// zero opacity.
func removedFromLayout(n *html.Node) bool {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "hidden") || strings.EqualFold(attr.Key, dom.HiddenAttr) {
			return true
		}
	}
	decls := inlineStyle(n)
	if decls["display"] == "none" {
		return true
	}
	if op, ok := decls["opacity"]; ok && zeroOpacity(op) {
		return true
	}
	return false
}

// declaredVisibility returns the visibility n declares, or inherit. A
// computed value recorded by the renderer wins over inline style.
func declaredVisibility(n *html.Node) visibility {
	if n.Type != html.ElementNode {
		return inherit
	}
	value, ok := attrValue(n, dom.VisibilityAttr)
	if !ok {
		value = inlineStyle(n)["visibility"]
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hidden", "collapse":
		return hidden
	case "visible":
		return visible
	default:
		return inherit
	}
}

func zeroOpacity(v string) bool {
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f <= 0
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

func inlineStyle(n *html.Node) map[string]string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "style") {
			return parseDeclarations(attr.Val)
		}
	}
	return nil
}

// parseDeclarations tokenizes a style attribute into lower-cased
// property/value pairs. "!important" is dropped from values.
func parseDeclarations(style string) map[string]string {
	decls := make(map[string]string)
	s := scanner.New(style)

	var prop string
	var value strings.Builder
	inValue := false

	commit := func() {
		if prop != "" && inValue {
			v := strings.ToLower(strings.TrimSpace(value.String()))
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			decls[prop] = v
		}
		prop = ""
		value.Reset()
		inValue = false
	}

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			commit()
		case tok.Type == scanner.TokenChar && tok.Value == ":" && !inValue:
			inValue = prop != ""
		case tok.Type == scanner.TokenS || tok.Type == scanner.TokenComment:
			if inValue && value.Len() > 0 {
				value.WriteByte(' ')
			}
		case !inValue:
			if tok.Type == scanner.TokenIdent {
				prop = strings.ToLower(tok.Value)
			}
		default:
			value.WriteString(tok.Value)
		}
	}
	commit()
	return decls
}
