package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumos-edit/lumos/backend/internal/infrastructure/config"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
)

func newTestProxy(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(NewFetcher(config.Default().Proxy), logging.NewNop())

	router := gin.New()
	router.GET("/api/proxy", handler.Handle)
	router.GET("/api/bootstrap.js", handler.ServeBootstrap)
	return router
}

func proxyGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProxyRejectsInvalidURL(t *testing.T) {
	router := newTestProxy(t)

	for _, path := range []string{
		"/api/proxy",
		"/api/proxy?url=not-a-url",
		"/api/proxy?url=ftp://example.com/file",
		"/api/proxy?url=/relative/path",
	} {
		rec := proxyGet(t, router, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestProxyInstrumentsPage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Write([]byte(`<html><head></head><body><a href="/about">About</a></body></html>`))
	}))
	defer upstream.Close()

	router := newTestProxy(t)
	rec := proxyGet(t, router, "/api/proxy?url="+upstream.URL+"/page")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// Relative links absolutized against the upstream origin
	assert.Contains(t, body, `href="`+upstream.URL+`/about"`)

	// Bootstrap script injected before </body>
	idx := strings.Index(body, "__lumosBootstrapped")
	end := strings.Index(body, "</body>")
	require.Greater(t, idx, 0)
	assert.Less(t, idx, end)

	// Frame-blocking headers replaced, CSP dropped
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestProxyPassesThroughUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	router := newTestProxy(t)
	rec := proxyGet(t, router, "/api/proxy?url="+upstream.URL+"/missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "__lumosBootstrapped")
}

func TestProxyUnreachableUpstream(t *testing.T) {
	router := newTestProxy(t)
	rec := proxyGet(t, router, "/api/proxy?url=http://127.0.0.1:1/page")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProxySanitizeMode(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p onclick="evil()">hi</p><script src="/x.js"></script></body></html>`))
	}))
	defer upstream.Close()

	router := newTestProxy(t)
	rec := proxyGet(t, router, "/api/proxy?url="+upstream.URL+"/page&sanitize=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "onclick")
	assert.NotContains(t, body, "x.js")
	// Bootstrap is injected after sanitization, so it survives
	assert.Contains(t, body, "__lumosBootstrapped")
}

func TestServeBootstrap(t *testing.T) {
	router := newTestProxy(t)
	rec := proxyGet(t, router, "/api/bootstrap.js")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "LUMOS_CONNECTED")
	assert.Contains(t, rec.Body.String(), "LUMOS_STYLE_CHANGE")
}
