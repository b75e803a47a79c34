package bloghost

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Test Post", "test-post"},
		{"Test Post with-&-a--lot---of----hyphens-&-spaces", "test-post-with-a-lot-of-hyphens-spaces"},
		{"Hello, World!", "hello-world"},
		{"path/to/thing", "path-to-thing"},
		{"--Already--Dashed--", "already-dashed"},
		{"ÜBER größe", "ber-gre"},
		{"", ""},
		{"!!!", ""},
		{"MiXeD CaSe 123", "mixed-case-123"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Test Post with-&-a--lot---of----hyphens",
		strings.Repeat("long words here ", 60),
		"Plain",
	}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	got := Slugify(strings.Repeat("a", 600))
	if len(got) != maxSlugLen {
		t.Errorf("len = %d, want %d", len(got), maxSlugLen)
	}

	// Truncation may land on a hyphen; the result must not end with one.
	got = Slugify(strings.Repeat("aaaa ", 200))
	if len(got) > maxSlugLen {
		t.Errorf("len = %d, over the limit", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with a hyphen: %q", got[len(got)-10:])
	}
}

func TestMakeSlugProbesSuffixes(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post-1", true)); err != nil {
		t.Fatal(err)
	}

	slug, err := s.MakeSlug("Test Post", "blog", KindPost, "")
	if err != nil {
		t.Fatalf("MakeSlug failed: %v", err)
	}
	if slug != "test-post-2" {
		t.Errorf("slug = %q, want test-post-2", slug)
	}
}

func TestMakeSlugKeepsCurrent(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}

	// Re-slugging an entity to its own slug is not a collision.
	slug, err := s.MakeSlug("Test Post", "blog", KindPost, "test-post")
	if err != nil {
		t.Fatalf("MakeSlug failed: %v", err)
	}
	if slug != "test-post" {
		t.Errorf("slug = %q, want test-post", slug)
	}
}

func TestMakeSlugScopedToBlog(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateBlog(testBlog("blog")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateBlog(testBlog("other")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreatePost(testPost("blog", "test-post", true)); err != nil {
		t.Fatal(err)
	}

	slug, err := s.MakeSlug("Test Post", "other", KindPost, "")
	if err != nil {
		t.Fatalf("MakeSlug failed: %v", err)
	}
	if slug != "test-post" {
		t.Errorf("slug = %q, want test-post (other blog's posts do not collide)", slug)
	}
}
