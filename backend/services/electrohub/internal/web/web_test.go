package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Pages(), zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestIndexListsEverySection(t *testing.T) {
	r := newRenderer(t)

	rec := httptest.NewRecorder()
	r.Index()(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	for _, p := range r.Pages() {
		assert.Contains(t, rec.Body.String(), `href="`+p.Path+`"`)
	}

	rec = httptest.NewRecorder()
	r.Index()(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToolPagesRenderForms(t *testing.T) {
	r := newRenderer(t)
	for _, p := range r.Pages() {
		rec := httptest.NewRecorder()
		r.Page(p)(rec, httptest.NewRequest(http.MethodGet, p.Path, nil))
		require.Equal(t, http.StatusOK, rec.Code, p.Path)
		body := rec.Body.String()
		for _, tool := range p.Tools {
			assert.Contains(t, body, `data-endpoint="`+tool.Endpoint+`"`, p.Path)
		}
	}
}

func TestPageCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Pages() {
		assert.False(t, seen[p.Path], "duplicate page %s", p.Path)
		seen[p.Path] = true
		for _, tool := range p.Tools {
			assert.True(t, strings.HasPrefix(tool.Endpoint, "/api/"), tool.Endpoint)
			assert.Contains(t, []string{http.MethodGet, http.MethodPost}, tool.Method)
		}
	}
	for _, path := range []string{"/calculator", "/circuit", "/signal", "/antenna", "/solar", "/energy", "/iot", "/lab"} {
		assert.True(t, seen[path], path)
	}
}

func TestStaticAndServiceWorker(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serviceWorker")

	rec = httptest.NewRecorder()
	ServiceWorker()(rec, httptest.NewRequest(http.MethodGet, "/sw.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/", rec.Header().Get("Service-Worker-Allowed"))
}
