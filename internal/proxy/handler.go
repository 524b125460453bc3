package proxy

import (
	_ "embed"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/monitoring"
)

//go:embed bootstrap.js
var bootstrapJS string

// Handler serves instrumented third-party pages. Pages come back
// same-origin with the bootstrap script inlined, so the studio can
// frame and drive them.
type Handler struct {
	fetcher   *Fetcher
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	sanitizer *bluemonday.Policy
}

// NewHandler creates a proxy handler
func NewHandler(fetcher *Fetcher, logger *logging.Logger) *Handler {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("style", "class", "id").Globally()
	policy.AllowElements("html", "head", "body", "title", "meta", "link")

	return &Handler{
		fetcher:   fetcher,
		logger:    logger,
		sanitizer: policy,
	}
}

// WithMetrics attaches a metrics collector
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// Handle serves GET /api/proxy?url=
func (h *Handler) Handle(c *gin.Context) {
	target := c.Query("url")
	parsed, err := url.Parse(target)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http(s) URL"})
		return
	}

	start := time.Now()
	page, err := h.fetcher.Fetch(c.Request.Context(), target)
	if err != nil {
		h.logger.Warn("Upstream fetch failed", zap.String("url", target), zap.Error(err))
		h.recordFetch("error", start)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch page"})
		return
	}
	h.recordFetch(http.StatusText(page.Status), start)

	if page.Status < 200 || page.Status >= 300 {
		// Upstream errors pass through untouched
		c.Data(page.Status, page.ContentType, []byte(page.Body))
		return
	}

	html, err := h.instrument(page.Body, parsed, c.Query("sanitize") == "1")
	if err != nil {
		h.logger.Warn("Failed to process page", zap.String("url", target), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process page"})
		return
	}

	// SAMEORIGIN lets the studio frame the page; upstream CSP and
	// frame-blocking headers never reach the client because the
	// response is built fresh here.
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ServeBootstrap serves GET /api/bootstrap.js for first-party pages
// that opt in with a script tag
func (h *Handler) ServeBootstrap(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(bootstrapJS))
}

// instrument rewrites URLs and injects the bootstrap script
func (h *Handler) instrument(body string, base *url.URL, sanitize bool) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	Rewrite(doc, base)

	html, err := doc.Html()
	if err != nil {
		return "", err
	}

	if sanitize {
		html = h.sanitizer.Sanitize(html)
	}

	return injectScript(html, "<script>\n"+bootstrapJS+"\n</script>"), nil
}

// injectScript places the script before </body>, falling back to
// </html>, falling back to appending
func injectScript(html, script string) string {
	for _, marker := range []string{"</body>", "</html>"} {
		if idx := strings.LastIndex(html, marker); idx >= 0 {
			return html[:idx] + script + html[idx:]
		}
	}
	return html + script
}

func (h *Handler) recordFetch(status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordProxyFetch(status, time.Since(start))
	}
}
