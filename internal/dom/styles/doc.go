// Package styles implements the inline-style mutation engine.
//
// A Document owns a parsed HTML tree and is the sole write path for
// inline styles. Every first-party write goes through SetStyle, which
// reads the pre-change value, applies the write, and notifies observers
// with a StyleChange. Writes that bypass the Document (direct attribute
// edits on the tree) are not intercepted; capture of such writes is
// best-effort only.
//
// Undo/redo commands resolve the recorded selector and set the old/new
// value directly; they bypass observer notification so re-entrant
// capture cannot occur. An unresolvable selector is a silent no-op.
package styles
