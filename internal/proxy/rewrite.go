package proxy

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rewrite absolutizes relative URLs in the document against base so
// assets keep loading once the page is served from our origin. Already
// absolute, protocol-relative, fragment, and non-fetchable scheme
// references are left alone.
func Rewrite(doc *goquery.Document, base *url.URL) {
	if b, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if parsed, err := url.Parse(b); err == nil {
			base = base.ResolveReference(parsed)
		}
	}

	rewriteAttr(doc, "a[href]", "href", base)
	rewriteAttr(doc, "link[href]", "href", base)
	rewriteAttr(doc, "img[src]", "src", base)
	rewriteAttr(doc, "script[src]", "src", base)
	rewriteAttr(doc, "iframe[src]", "src", base)
	rewriteAttr(doc, "source[src]", "src", base)
	rewriteAttr(doc, "form[action]", "action", base)
	rewriteSrcset(doc, base)
}

func rewriteAttr(doc *goquery.Document, query, attr string, base *url.URL) {
	doc.Find(query).Each(func(i int, s *goquery.Selection) {
		val, _ := s.Attr(attr)
		if resolved, ok := resolveURL(val, base); ok {
			s.SetAttr(attr, resolved)
		}
	})
}

// rewriteSrcset handles the comma-separated candidate list of
// responsive images
func rewriteSrcset(doc *goquery.Document, base *url.URL) {
	doc.Find("img[srcset], source[srcset]").Each(func(i int, s *goquery.Selection) {
		srcset, _ := s.Attr("srcset")
		if srcset == "" {
			return
		}

		candidates := strings.Split(srcset, ",")
		changed := false
		for idx, candidate := range candidates {
			parts := strings.Fields(strings.TrimSpace(candidate))
			if len(parts) == 0 {
				continue
			}
			if resolved, ok := resolveURL(parts[0], base); ok {
				parts[0] = resolved
				candidates[idx] = strings.Join(parts, " ")
				changed = true
			}
		}
		if changed {
			s.SetAttr("srcset", strings.Join(candidates, ", "))
		}
	})
}

// resolveURL reports the absolute form of ref, or ok=false when the
// reference must not be touched
func resolveURL(ref string, base *url.URL) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, scheme := range []string{"data:", "javascript:", "mailto:", "tel:", "vbscript:"} {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if parsed.IsAbs() {
		return "", false
	}

	return base.ResolveReference(parsed).String(), true
}
