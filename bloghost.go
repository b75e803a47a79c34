// Package bloghost is the backend core of a hosted, multi-tenant blog
// platform built with Go, Echo, and SQLite. Each tenant blog owns authors,
// tagged posts, and moderated comments behind a slug-keyed content store.
// The package provides the store with cascading re-key, the three-protocol
// linkback ingestion pipeline (trackback, pingback, webmention), the
// time-windowed bot-defense token, and the two-tier cache invalidation
// layer. Template rendering, admin forms, image handling, mail delivery, and
// authentication are external collaborators.
package bloghost

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

// App wires the store, caches, ingestion pipeline, and HTTP surface
// together.
type App struct {
	Config      Config
	Echo        *echo.Echo
	Store       *Store
	Pages       *PageCache
	Tokens      *TokenService
	Linkbacks   *LinkbackIngestor
	Invalidator *CacheInvalidator
	Notifier    *Notifier

	mailer       Mailer
	limiter      *IPLimiter
	sweeper      *cron.Cron
	logger       *slog.Logger
	customRoutes []func(*App)
}

// New creates an App with the given configuration. The mailer may be nil,
// which disables deferred notifications.
func New(cfg Config, mailer Mailer, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.mailer = mailer
	return a
}

// Start initializes the store, caches, pipeline, routes, and the HTTP
// server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init wires everything short of listening; split out so tests can exercise
// the full application without a socket.
func (a *App) init() error {
	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("bloghost: init store: %w", err)
	}
	a.Store = store

	a.Pages = NewPageCache()
	a.Tokens = NewTokenService(store)
	a.Notifier = NewNotifier(a.mailer, a.Config.NotifyQueueSize, a.logger)
	a.Linkbacks = NewLinkbackIngestor(store, a.Notifier)
	a.Invalidator = NewCacheInvalidator(store, a.Pages, a.logger)
	a.limiter = NewIPLimiter(a.Config.LinkbackRateLimit, a.Config.LinkbackRateWindow)

	a.sweeper = cron.New()
	if _, err := a.sweeper.AddFunc(a.Config.CacheSweepSchedule, a.sweepExpiredCache); err != nil {
		return fmt.Errorf("bloghost: cache sweep schedule: %w", err)
	}
	a.sweeper.Start()

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/:blog", a.PageCacheMiddleware)
	g.POST("/pingback", a.handlePingback)
	g.POST("/trackback/:slug", a.handleTrackback)
	g.POST("/webmention", a.handleWebmention)
	g.GET("/verify", a.handleVerify)
	g.GET("/feed", a.handleFeed)
	g.POST("/contact", a.handleContact)
}

// sweepExpiredCache drops durable cache entries whose expiry has passed.
func (a *App) sweepExpiredCache() {
	n, err := a.Store.PurgeExpiredHTML(time.Now())
	if err != nil {
		a.logger.Error("durable cache sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		a.logger.Info("durable cache sweep", slog.Int64("expired", n))
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Notifier != nil {
		a.Notifier.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
