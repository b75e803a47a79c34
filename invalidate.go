package bloghost

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// CacheInvalidator computes the closed set of externally visible cache keys
// affected by a content mutation and purges them. It is invoked after any
// mutation that changes published visibility: publishing or unpublishing a
// post, editing a published post, moderating a comment, or changing
// blog-wide settings.
type CacheInvalidator struct {
	store  *Store
	pages  *PageCache
	logger *slog.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewCacheInvalidator wires the invalidator over both cache tiers.
func NewCacheInvalidator(store *Store, pages *PageCache, logger *slog.Logger) *CacheInvalidator {
	return &CacheInvalidator{store: store, pages: pages, logger: logger, now: time.Now}
}

// CacheKeys enumerates every fast-tier key a blog's published content can
// render to: the blog root, the contact page, the feed, each published
// post's permalink, the pagination pages implied by the published count, and
// (when author pages are enabled) each author's page with its own
// pagination. Page zero is the root path itself; later pages use the ?page=N
// query form.
func (ci *CacheInvalidator) CacheKeys(blog Blog) ([]string, error) {
	posts, err := ci.store.ListPosts(blog.Slug, true)
	if err != nil {
		return nil, err
	}

	root := blog.Path()
	keys := []string{root, root + "/contact", root + "/feed"}
	for _, p := range posts {
		keys = append(keys, p.Path())
	}
	keys = append(keys, paginationKeys(root, len(posts), blog.PostsPerPage)...)

	if blog.AuthorPages {
		authors, err := ci.store.ListAuthors(blog.Slug)
		if err != nil {
			return nil, err
		}
		for _, a := range authors {
			authorPath := root + "/author/" + a.Slug
			keys = append(keys, authorPath)
			count, err := ci.store.CountPostsByAuthor(blog.Slug, a.Slug)
			if err != nil {
				return nil, err
			}
			keys = append(keys, paginationKeys(authorPath, count, blog.PostsPerPage)...)
		}
	}
	return keys, nil
}

// paginationKeys returns the keys for pages 1..ceil(count/perPage)-1.
func paginationKeys(base string, count, perPage int) []string {
	if perPage <= 0 {
		return nil
	}
	pages := (count + perPage - 1) / perPage
	var keys []string
	for p := 1; p < pages; p++ {
		keys = append(keys, fmt.Sprintf("%s?page=%d", base, p))
	}
	return keys
}

// Invalidate purges everything the blog can have rendered. It is best-effort
// and fire-and-forget: purges run in parallel with no ordering requirement,
// and every failure is logged and swallowed — the triggering write has
// already succeeded and must not see an error from here.
func (ci *CacheInvalidator) Invalidate(blog Blog) {
	keys, err := ci.CacheKeys(blog)
	if err != nil {
		invalidationsTotal.WithLabelValues("error").Inc()
		ci.logger.Error("cache key enumeration failed",
			slog.String("blog", blog.Slug), slog.Any("error", err))
		return
	}

	var g errgroup.Group
	g.SetLimit(8)
	for _, key := range keys {
		g.Go(func() error {
			ci.pages.Delete(key)
			cachePurgesTotal.Inc()
			return nil
		})
	}
	g.Go(func() error {
		return ci.fixupFeedCache(blog)
	})
	if err := g.Wait(); err != nil {
		invalidationsTotal.WithLabelValues("error").Inc()
		ci.logger.Error("cache purge incomplete",
			slog.String("blog", blog.Slug), slog.Any("error", err))
		return
	}
	invalidationsTotal.WithLabelValues("ok").Inc()
}

// fixupFeedCache adjusts the durable feed entry. A published post dated in
// the future means the current feed output stays correct until that
// timestamp arrives, so the entry's expiry is rewritten to fire just after
// it; otherwise the entry is deleted outright to force regeneration on the
// next read.
func (ci *CacheInvalidator) fixupFeedCache(blog Blog) error {
	feedPath := blog.Path() + "/feed"
	posts, err := ci.store.ListPosts(blog.Slug, true)
	if err != nil {
		return err
	}
	now := ci.now()
	var earliest time.Time
	for _, p := range posts {
		if p.Timestamp.After(now) && (earliest.IsZero() || p.Timestamp.Before(earliest)) {
			earliest = p.Timestamp
		}
	}
	if !earliest.IsZero() {
		return ci.store.SetCacheExpiry(feedPath, earliest.Add(time.Second))
	}
	return ci.store.DeleteCachedHTML(feedPath)
}
