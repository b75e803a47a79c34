package bloghost

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(cacheControlMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasSuffix(path, "/feed"):
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case strings.HasSuffix(path, "/verify"):
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		}
		return next(c)
	}
}

// PageCacheMiddleware serves successful GET responses of tenant-rendered
// public pages from the fast cache and fills it on a miss. Invalidation
// purges by the same path keys. Custom route callbacks can attach it to
// their own page routes.
func (a *App) PageCacheMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodGet {
			return next(c)
		}
		// The token endpoint is marked no-store upstream; never cache it.
		if c.Response().Header().Get("Cache-Control") == "no-store" {
			return next(c)
		}
		key := c.Request().URL.RequestURI()
		if body, ok := a.Pages.Get(key); ok {
			return c.HTMLBlob(http.StatusOK, body)
		}
		rec := newBodyRecorder(c.Response())
		c.Response().Writer = rec
		if err := next(c); err != nil {
			return err
		}
		if rec.status == http.StatusOK {
			a.Pages.Set(key, rec.body.Bytes())
		}
		return nil
	}
}

// bodyRecorder tees a response body so it can be cached after being written.
type bodyRecorder struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func newBodyRecorder(r *echo.Response) *bodyRecorder {
	return &bodyRecorder{ResponseWriter: r.Writer, status: http.StatusOK}
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
