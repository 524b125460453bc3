// Package selector generates re-resolvable string addresses for DOM
// elements and resolves them back.
//
// Generation priority:
//  1. Non-empty id: "#id"
//  2. Classes: "tag.class1.class2" (first two classes, standalone)
//  3. Ancestor path: one segment per ancestor, ":nth-of-type(n)" where
//     the 1-based same-tag sibling index is not 1, joined with " > ".
//     An ancestor carrying an id becomes "#id" and ends the walk.
//
// Selectors are stable only while ids, classes, and sibling tag order
// are unchanged; they are not guaranteed valid across reloads or
// structural re-renders.
package selector

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Generate returns a selector for element n, usable with Resolve.
// Returns "" when n is not an element node.
func Generate(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}

	if id := Attr(n, "id"); id != "" {
		return "#" + id
	}

	if classes := Classes(n); len(classes) > 0 {
		if len(classes) > 2 {
			classes = classes[:2]
		}
		return strings.ToLower(n.Data) + "." + strings.Join(classes, ".")
	}

	return ancestorPath(n)
}

// ancestorPath builds a root-to-leaf path of tag segments
func ancestorPath(n *html.Node) string {
	var segments []string

	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := Attr(cur, "id"); id != "" {
			segments = append(segments, "#"+id)
			break
		}

		segment := strings.ToLower(cur.Data)
		if idx := typeIndex(cur); idx != 1 {
			segment += fmt.Sprintf(":nth-of-type(%d)", idx)
		}
		segments = append(segments, segment)
	}

	// Segments were collected leaf-first
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

// typeIndex returns the 1-based index of n among same-tag element siblings
func typeIndex(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			idx++
		}
	}
	return idx
}

// Resolve returns the first element under root matching sel, or nil when
// the selector is invalid or matches nothing.
func Resolve(root *html.Node, sel string) *html.Node {
	if root == nil || sel == "" {
		return nil
	}
	compiled, err := cascadia.Parse(sel)
	if err != nil {
		return nil
	}
	return cascadia.Query(root, compiled)
}

// Attr returns the value of the named attribute, or ""
func Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// Classes returns the element's class list in document order
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}
