package styles

import (
	"strings"

	"golang.org/x/net/html"
)

// Declaration is a single property/value pair of an inline style
type Declaration struct {
	Property string
	Value    string
}

// ParseInline parses a style attribute value into ordered declarations.
// Malformed segments (missing colon, empty property) are skipped.
func ParseInline(style string) []Declaration {
	var decls []Declaration
	for _, part := range strings.Split(style, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prop, value, ok := strings.Cut(part, ":")
		prop = strings.TrimSpace(prop)
		if !ok || prop == "" {
			continue
		}
		decls = append(decls, Declaration{
			Property: strings.ToLower(prop),
			Value:    strings.TrimSpace(value),
		})
	}
	return decls
}

// SerializeInline renders declarations back into a style attribute value,
// preserving declaration order.
func SerializeInline(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

// GetProperty reads one property from an element's inline style, or ""
func GetProperty(n *html.Node, property string) string {
	property = strings.ToLower(property)
	for _, d := range ParseInline(attr(n, "style")) {
		if d.Property == property {
			return d.Value
		}
	}
	return ""
}

// SetProperty writes one property into an element's inline style and
// returns the previous value. An existing declaration is updated in
// place; a new one is appended. Setting an empty value removes the
// declaration.
func SetProperty(n *html.Node, property, value string) (old string) {
	property = strings.ToLower(property)
	decls := ParseInline(attr(n, "style"))

	found := false
	out := decls[:0]
	for _, d := range decls {
		if d.Property == property {
			old = d.Value
			found = true
			if value == "" {
				continue
			}
			d.Value = value
		}
		out = append(out, d)
	}
	if !found && value != "" {
		out = append(out, Declaration{Property: property, Value: value})
	}

	setAttr(n, "style", SerializeInline(out))
	return old
}

// InlineStyles returns all inline declarations of an element as a map
func InlineStyles(n *html.Node) map[string]string {
	m := make(map[string]string)
	for _, d := range ParseInline(attr(n, "style")) {
		m[d.Property] = d.Value
	}
	return m
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			if value == "" {
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
				return
			}
			n.Attr[i].Val = value
			return
		}
	}
	if value != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	}
}
