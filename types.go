package bloghost

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityKind identifies one of the slug-keyed entity types.
type EntityKind string

const (
	KindBlog   EntityKind = "blog"
	KindAuthor EntityKind = "author"
	KindTag    EntityKind = "tag"
	KindPost   EntityKind = "post"
)

// EntityRef is the immutable key of a slug-keyed entity: the parent scope
// (blog slug, empty for blogs themselves) plus the entity's own slug.
type EntityRef struct {
	Kind EntityKind
	Blog string // parent blog slug; empty for KindBlog
	Slug string
}

func (r EntityRef) String() string {
	if r.Kind == KindBlog {
		return fmt.Sprintf("%s/%s", r.Kind, r.Slug)
	}
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Blog, r.Slug)
}

// Blog is the root entity of a tenant.
type Blog struct {
	Slug            string
	Title           string
	Description     string
	Template        string
	AdminEmail      string
	PostsPerPage    int
	Blocklist       []string
	EnableComments  bool
	EnableLinkbacks bool
	EnableContact   bool
	AuthorPages     bool
	ModerationAlert bool
}

// Path returns the blog's root URL path.
func (b *Blog) Path() string {
	return "/" + b.Slug
}

// Blocklisted reports whether ip appears in the blog's IP blocklist.
func (b *Blog) Blocklisted(ip string) bool {
	for _, blocked := range b.Blocklist {
		if blocked == ip {
			return true
		}
	}
	return false
}

// Author is a child of Blog.
type Author struct {
	BlogSlug string
	Slug     string
	Name     string
	URL      string
	Email    string
}

// Tag is a child of Blog.
type Tag struct {
	BlogSlug string
	Slug     string
	Name     string
}

// Post is a child of Blog. AuthorSlug and TagSlugs reference siblings under
// the same blog.
type Post struct {
	BlogSlug   string
	Slug       string
	Title      string
	Body       string
	Published  bool
	Timestamp  time.Time
	AuthorSlug string
	TagSlugs   []string
}

// Path returns the post's permalink path.
func (p *Post) Path() string {
	return "/" + p.BlogSlug + "/post/" + p.Slug
}

// CommentKind discriminates the comment union: a plain reader comment or one
// of the three linkback protocols.
type CommentKind string

const (
	CommentPlain      CommentKind = "comment"
	CommentTrackback  CommentKind = "trackback"
	CommentPingback   CommentKind = "pingback"
	CommentWebmention CommentKind = "webmention"
)

// Linkback reports whether the kind is one of the linkback protocols.
func (k CommentKind) Linkback() bool {
	switch k {
	case CommentTrackback, CommentPingback, CommentWebmention:
		return true
	}
	return false
}

// Comment is a child of Post, identified by a generated ID rather than a
// slug. Exactly one of {Email, AuthorSlug, linkback SourceURL} identifies the
// commenter; the constructors enforce this.
type Comment struct {
	ID       string
	BlogSlug string
	PostSlug string
	Kind     CommentKind

	// Plain comments.
	Name       string // commenter name, or linkback title
	URL        string // commenter website
	Email      string
	Body       string // comment body, or linkback excerpt
	AuthorSlug string // set when the commenter is one of the blog's authors

	// Linkbacks.
	SourceURL string
	BlogName  string // origin site name supplied by trackbacks
	IPAddress string

	Approved  bool
	Timestamp time.Time
}

// NewPlainComment builds an unapproved reader comment. The commenter must be
// identified by exactly one of email or authorSlug.
func NewPlainComment(blogSlug, postSlug, name, siteURL, body, email, authorSlug string) (Comment, error) {
	if (email == "") == (authorSlug == "") {
		return Comment{}, &ValidationError{Field: "email", Message: "a comment needs exactly one of a reviewer email or an author reference"}
	}
	if strings.TrimSpace(body) == "" {
		return Comment{}, &ValidationError{Field: "body", Message: "required"}
	}
	return Comment{
		ID:         uuid.NewString(),
		BlogSlug:   blogSlug,
		PostSlug:   postSlug,
		Kind:       CommentPlain,
		Name:       name,
		URL:        siteURL,
		Email:      email,
		Body:       body,
		AuthorSlug: authorSlug,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// NewLinkbackComment builds an unapproved linkback comment of the given
// subtype.
func NewLinkbackComment(blogSlug, postSlug string, kind CommentKind, sourceURL, ip string) (Comment, error) {
	if !kind.Linkback() {
		return Comment{}, &ValidationError{Field: "kind", Message: "not a linkback subtype"}
	}
	if sourceURL == "" {
		return Comment{}, &ValidationError{Field: "source", Message: "required"}
	}
	return Comment{
		ID:        uuid.NewString(),
		BlogSlug:  blogSlug,
		PostSlug:  postSlug,
		Kind:      kind,
		SourceURL: sourceURL,
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	}, nil
}
