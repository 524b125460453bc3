package selector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testPage = `
<!DOCTYPE html>
<html>
<body>
	<div id="hero">Hero</div>
	<div class="card featured large">Card</div>
	<section>
		<p>first</p>
		<p>second</p>
	</section>
	<section id="content">
		<span>inside</span>
	</section>
	<article>
		<div>
			<em>deep</em>
		</div>
	</article>
</body>
</html>`

func parsePage(t *testing.T, page string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return root
}

// findFirst walks the tree for the first element matching pred
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func TestGenerateUsesID(t *testing.T) {
	root := parsePage(t, testPage)
	hero := findFirst(root, func(n *html.Node) bool { return Attr(n, "id") == "hero" })
	require.NotNil(t, hero)

	sel := Generate(hero)
	assert.Equal(t, "#hero", sel)
	assert.Same(t, hero, Resolve(root, sel))
}

func TestGenerateUsesFirstTwoClasses(t *testing.T) {
	root := parsePage(t, testPage)
	card := findFirst(root, func(n *html.Node) bool { return len(Classes(n)) > 0 })
	require.NotNil(t, card)

	sel := Generate(card)
	assert.Equal(t, "div.card.featured", sel)
	assert.Same(t, card, Resolve(root, sel))
}

func TestGenerateAncestorPath(t *testing.T) {
	root := parsePage(t, testPage)
	second := findFirst(root, func(n *html.Node) bool {
		return n.Data == "p" && typeIndex(n) == 2
	})
	require.NotNil(t, second)

	sel := Generate(second)
	assert.Equal(t, "html > body > section > p:nth-of-type(2)", sel)
	assert.Same(t, second, Resolve(root, sel))
}

func TestGenerateOmitsNthOfTypeForFirst(t *testing.T) {
	root := parsePage(t, testPage)
	em := findFirst(root, byTag("em"))
	require.NotNil(t, em)

	sel := Generate(em)
	assert.NotContains(t, sel, ":nth-of-type")
	assert.Same(t, em, Resolve(root, sel))
}

func TestGenerateStopsAtAncestorID(t *testing.T) {
	root := parsePage(t, testPage)
	span := findFirst(root, byTag("span"))
	require.NotNil(t, span)

	sel := Generate(span)
	assert.Equal(t, "#content > span", sel)
	assert.Same(t, span, Resolve(root, sel))
}

func TestGenerateRoundTripsWithoutIDOrClass(t *testing.T) {
	root := parsePage(t, testPage)

	var elements []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && Attr(n, "id") == "" && len(Classes(n)) == 0 {
			elements = append(elements, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)
	require.NotEmpty(t, elements)

	for _, el := range elements {
		sel := Generate(el)
		require.NotEmpty(t, sel, "element %s", el.Data)
		assert.Same(t, el, Resolve(root, sel), "selector %q should round-trip", sel)
	}
}

func TestGenerateNonElement(t *testing.T) {
	assert.Empty(t, Generate(nil))

	root := parsePage(t, testPage)
	assert.Empty(t, Generate(root)) // document node
}

func TestResolveMisses(t *testing.T) {
	root := parsePage(t, testPage)

	assert.Nil(t, Resolve(root, "#missing"))
	assert.Nil(t, Resolve(root, ""))
	assert.Nil(t, Resolve(root, "p:nth-of-type(")) // invalid selector
	assert.Nil(t, Resolve(nil, "#hero"))
}
