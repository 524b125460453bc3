package styles

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/lumos-edit/lumos/backend/internal/dom/selector"
	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

// Observer receives every first-party inline-style mutation
type Observer func(types.StyleChange)

// Document wraps a parsed HTML tree and intercepts inline-style writes.
// All first-party writes must go through SetStyle/SetStyleBySelector,
// which carry the originating element explicitly; observers are notified
// with a StyleChange for each write. Undo/redo application bypasses
// notification so a round trip cannot re-capture itself.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	observers []Observer
}

// Parse reads and parses an HTML document
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document from a string
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Observe registers an observer for style mutations
func (d *Document) Observe(fn Observer) {
	d.mu.Lock()
	d.observers = append(d.observers, fn)
	d.mu.Unlock()
}

// Root returns the document root node
func (d *Document) Root() *html.Node {
	return d.root
}

// Resolve returns the first element matching sel, or nil
func (d *Document) Resolve(sel string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return selector.Resolve(d.root, sel)
}

// SetStyle mutates one inline property of el and notifies observers.
// The element is passed explicitly; the change's selector is generated
// from it at capture time.
func (d *Document) SetStyle(el *html.Node, property, value string) types.StyleChange {
	d.mu.Lock()
	old := SetProperty(el, property, value)
	change := types.StyleChange{
		Selector:  selector.Generate(el),
		Property:  strings.ToLower(property),
		OldValue:  old,
		NewValue:  value,
		Timestamp: time.Now().UnixMilli(),
	}
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
	return change
}

// SetStyleBySelector resolves sel and mutates the matched element.
// Returns false without side effects when nothing matches.
func (d *Document) SetStyleBySelector(sel, property, value string) (types.StyleChange, bool) {
	d.mu.Lock()
	el := selector.Resolve(d.root, sel)
	d.mu.Unlock()
	if el == nil {
		return types.StyleChange{}, false
	}
	return d.SetStyle(el, property, value), true
}

// ApplyUndo restores the change's old value. Unresolvable selectors are
// silent no-ops; observers are not notified.
func (d *Document) ApplyUndo(c types.StyleChange) bool {
	return d.applyQuiet(c.Selector, c.Property, c.OldValue)
}

// ApplyRedo re-applies the change's new value, with the same policy.
func (d *Document) ApplyRedo(c types.StyleChange) bool {
	return d.applyQuiet(c.Selector, c.Property, c.NewValue)
}

func (d *Document) applyQuiet(sel, property, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	el := selector.Resolve(d.root, sel)
	if el == nil {
		return false
	}
	SetProperty(el, property, value)
	return true
}

// SelectedElement summarizes the element matching sel for studio display
func (d *Document) SelectedElement(sel string) (types.SelectedElement, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el := selector.Resolve(d.root, sel)
	if el == nil {
		return types.SelectedElement{}, false
	}
	return types.SelectedElement{
		Selector:  selector.Generate(el),
		TagName:   strings.ToUpper(el.Data),
		ClassName: selector.Attr(el, "class"),
		ID:        selector.Attr(el, "id"),
		Styles:    InlineStyles(el),
	}, true
}

// HTML renders the document back to markup
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}
