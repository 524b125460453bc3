package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInline(t *testing.T) {
	decls := ParseInline("color: red; background-color: blue")
	assert.Equal(t, []Declaration{
		{Property: "color", Value: "red"},
		{Property: "background-color", Value: "blue"},
	}, decls)
}

func TestParseInlineMalformed(t *testing.T) {
	assert.Empty(t, ParseInline(""))
	assert.Empty(t, ParseInline("  ;  ; "))
	assert.Empty(t, ParseInline("no-colon-here"))
	assert.Empty(t, ParseInline(": orphan-value"))

	// Valid declarations survive neighboring garbage
	decls := ParseInline("junk; color: red;")
	assert.Equal(t, []Declaration{{Property: "color", Value: "red"}}, decls)
}

func TestParseInlineNormalizesCase(t *testing.T) {
	decls := ParseInline("COLOR: Red")
	assert.Equal(t, "color", decls[0].Property)
	assert.Equal(t, "Red", decls[0].Value)
}

func TestParseInlineValueWithColon(t *testing.T) {
	decls := ParseInline(`background: url(https://example.com/x.png)`)
	assert.Equal(t, "background", decls[0].Property)
	assert.Equal(t, "url(https://example.com/x.png)", decls[0].Value)
}

func TestSerializeInline(t *testing.T) {
	s := SerializeInline([]Declaration{
		{Property: "color", Value: "red"},
		{Property: "margin", Value: "0 auto"},
	})
	assert.Equal(t, "color: red; margin: 0 auto", s)
}

func TestSerializeRoundTripPreservesOrder(t *testing.T) {
	in := "z-index: 5; color: red; background: blue"
	assert.Equal(t, in, SerializeInline(ParseInline(in)))
}
