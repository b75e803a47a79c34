package bloghost

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"
)

func newTestInvalidator(t *testing.T) (*CacheInvalidator, *Store, *PageCache) {
	t.Helper()
	s := newTestStore(t)
	pages := NewPageCache()
	ci := NewCacheInvalidator(s, pages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return ci, s, pages
}

func TestCacheKeys(t *testing.T) {
	ci, s, _ := newTestInvalidator(t)

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAuthor(Author{BlogSlug: "blog", Slug: "test-author", Name: "Test Author"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "draft-post", false)); err != nil {
		t.Fatal(err)
	}

	keys, err := ci.CacheKeys(mustGetBlog(t, s, "blog"))
	if err != nil {
		t.Fatalf("CacheKeys failed: %v", err)
	}
	sort.Strings(keys)
	want := []string{
		"/blog",
		"/blog/author/test-author",
		"/blog/contact",
		"/blog/feed",
		"/blog/post/test-post",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func mustGetBlog(t *testing.T, s *Store, slug string) Blog {
	t.Helper()
	blog, err := s.GetBlog(slug)
	if err != nil {
		t.Fatal(err)
	}
	return blog
}

func TestCacheKeysPagination(t *testing.T) {
	ci, s, _ := newTestInvalidator(t)

	blog := testBlog("blog")
	blog.PostsPerPage = 10
	blog.AuthorPages = false
	if err := s.CreateBlog(blog); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 25; i++ {
		if err := s.CreatePost(testPost("blog", fmt.Sprintf("post-%d", i), true)); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := ci.CacheKeys(blog)
	if err != nil {
		t.Fatal(err)
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	// Page zero is the blog root; 25 posts at 10 per page add pages 1 and 2.
	if !set["/blog?page=1"] || !set["/blog?page=2"] {
		t.Errorf("pagination keys missing from %v", keys)
	}
	if set["/blog?page=0"] || set["/blog?page=3"] {
		t.Errorf("unexpected pagination keys in %v", keys)
	}
}

func TestInvalidatePurgesPageCache(t *testing.T) {
	ci, s, pages := newTestInvalidator(t)

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateBlog(testBlog("other")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}

	pages.Set("/blog", []byte("stale"))
	pages.Set("/blog/post/test-post", []byte("stale"))
	pages.Set("/other", []byte("fresh"))

	ci.Invalidate(mustGetBlog(t, s, "blog"))

	if _, ok := pages.Get("/blog"); ok {
		t.Error("/blog should be purged")
	}
	if _, ok := pages.Get("/blog/post/test-post"); ok {
		t.Error("post page should be purged")
	}
	if _, ok := pages.Get("/other"); !ok {
		t.Error("other blog's pages must survive")
	}
}

func TestInvalidateRewritesFeedExpiryForFuturePost(t *testing.T) {
	ci, s, _ := newTestInvalidator(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ci.now = func() time.Time { return now }

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	future := testPost("blog", "scheduled-post", true)
	future.Timestamp = now.Add(2 * time.Hour)
	if err := s.CreatePost(future); err != nil {
		t.Fatal(err)
	}
	later := testPost("blog", "later-post", true)
	later.Timestamp = now.Add(5 * time.Hour)
	if err := s.CreatePost(later); err != nil {
		t.Fatal(err)
	}
	if err := s.PutCachedHTML("/blog/feed", "<rss/>", now.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	ci.Invalidate(mustGetBlog(t, s, "blog"))

	// The cached feed stays valid until the earliest scheduled post lands.
	expiry, err := s.CacheExpiry("/blog/feed")
	if err != nil {
		t.Fatalf("feed entry should survive: %v", err)
	}
	want := now.Add(2*time.Hour + time.Second)
	if !expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiry, want)
	}
}

func TestInvalidateDeletesFeedWithoutFuturePosts(t *testing.T) {
	ci, s, _ := newTestInvalidator(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ci.now = func() time.Time { return now }

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.PutCachedHTML("/blog/feed", "<rss/>", now.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	ci.Invalidate(mustGetBlog(t, s, "blog"))

	if _, err := s.CacheExpiry("/blog/feed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("feed entry should be deleted to force regeneration, got %v", err)
	}
}
