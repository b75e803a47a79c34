package bloghost

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestPageCache(t *testing.T) {
	c := NewPageCache()

	if _, ok := c.Get("/blog"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("/blog", []byte("page"))
	body, ok := c.Get("/blog")
	if !ok || string(body) != "page" {
		t.Errorf("Get = %q, %v", body, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Delete("/blog")
	if _, ok := c.Get("/blog"); ok {
		t.Error("deleted entry should miss")
	}
	// Deleting an absent key is a no-op.
	c.Delete("/blog")
}

func TestPageCacheMiddlewareServesSecondRead(t *testing.T) {
	a, _ := newTestApp(t)

	renders := 0
	a.Echo.GET("/:blog/page", func(c echo.Context) error {
		renders++
		return c.HTML(http.StatusOK, "<html>rendered</html>")
	}, a.PageCacheMiddleware)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/blog/page", nil)
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, req)
		return rec
	}

	rec := get()
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>rendered</html>", rec.Body.String())
	require.Equal(t, 1, renders)

	rec = get()
	require.Equal(t, "<html>rendered</html>", rec.Body.String())
	require.Equal(t, 1, renders, "second read must come from the cache")

	a.Pages.Delete("/blog/page")
	get()
	require.Equal(t, 2, renders, "purged page renders again")
}

func TestPageCacheMiddlewareSkipsErrors(t *testing.T) {
	a, _ := newTestApp(t)

	a.Echo.GET("/:blog/missing", func(c echo.Context) error {
		return c.String(http.StatusNotFound, "nope")
	}, a.PageCacheMiddleware)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/blog/missing", nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if _, ok := a.Pages.Get("/blog/missing"); ok {
		t.Error("non-200 responses must not be cached")
	}
}

func TestVerifyEndpointNeverCached(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/blog/verify?url=/blog/contact", nil)
		req.Header.Set("Referer", "http://example.com/blog/contact")
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, req)
		return rec
	}

	rec := get()
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, 0, a.Pages.Len(), "token responses must not enter the page cache")
}
