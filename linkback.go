package bloghost

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkbackReason classifies a rejected linkback so each wire protocol can
// encode it (XML-RPC fault code, trackback message, webmention status).
type LinkbackReason int

const (
	LinkbackBlogNotFound LinkbackReason = iota
	LinkbackDisabled
	LinkbackInvalidURL
	LinkbackPostIDMissing
	LinkbackPostNotFound
	LinkbackDuplicate
)

// LinkbackError is a classified rejection. It unwraps to the matching
// taxonomy sentinel so errors.Is works across the ingestion pipeline.
type LinkbackError struct {
	Reason LinkbackReason
	Err    error
}

func (e *LinkbackError) Error() string {
	return fmt.Sprintf("linkback rejected: %v", e.Err)
}

func (e *LinkbackError) Unwrap() error {
	return e.Err
}

func reject(reason LinkbackReason, err error) *LinkbackError {
	return &LinkbackError{Reason: reason, Err: err}
}

// LinkbackRequest is one inbound notification, already stripped of its wire
// framing. Exactly one of Target (a URL to resolve against the blog's post
// prefix) or PostSlug (taken from the request path, trackback style) locates
// the post.
type LinkbackRequest struct {
	BlogSlug string
	Kind     CommentKind
	HostURL  string // scheme://host of the receiving request, no trailing slash

	Source   string
	Target   string
	PostSlug string

	Title    string
	Excerpt  string
	BlogName string
	IP       string
}

// LinkbackIngestor validates, deduplicates, and records trackback, pingback,
// and webmention notifications. One pipeline serves all three protocols; the
// handlers differ only in framing and failure encoding.
type LinkbackIngestor struct {
	store    *Store
	notifier *Notifier
}

// NewLinkbackIngestor wires the shared ingestion pipeline.
func NewLinkbackIngestor(store *Store, notifier *Notifier) *LinkbackIngestor {
	return &LinkbackIngestor{store: store, notifier: notifier}
}

// Ingest runs the validation pipeline, short-circuiting on the first failure.
// On success the linkback is stored as an unapproved comment on the target
// post and, when the blog wants moderation alerts and the post's author has
// an email address, a notification job is queued without blocking.
//
// Deduplication is check-then-write: two concurrent submissions of the same
// (post, source, subtype) can both pass the existence probe. The occasional
// duplicate comment is accepted rather than serialized away.
func (li *LinkbackIngestor) Ingest(req LinkbackRequest) (Comment, error) {
	blog, err := li.store.GetBlog(req.BlogSlug)
	if err != nil {
		if err == ErrNotFound {
			return Comment{}, reject(LinkbackBlogNotFound, fmt.Errorf("blog %q: %w", req.BlogSlug, ErrNotFound))
		}
		return Comment{}, err
	}
	if !blog.EnableLinkbacks || blog.Blocklisted(req.IP) {
		return Comment{}, reject(LinkbackDisabled, ErrAccessDenied)
	}
	if !absoluteURL(req.Source) {
		return Comment{}, reject(LinkbackInvalidURL, &ValidationError{Field: "source", Message: "not an absolute URL"})
	}

	postSlug := req.PostSlug
	if req.Target != "" {
		if !absoluteURL(req.Target) {
			return Comment{}, reject(LinkbackInvalidURL, &ValidationError{Field: "target", Message: "not an absolute URL"})
		}
		postSlug = strings.Replace(req.Target, req.HostURL+blog.Path()+"/post/", "", 1)
	}
	if postSlug == "" {
		return Comment{}, reject(LinkbackPostIDMissing, fmt.Errorf("post id: %w", ErrNotFound))
	}

	post, err := li.store.GetPost(blog.Slug, postSlug)
	if err != nil && err != ErrNotFound {
		return Comment{}, err
	}
	if err == ErrNotFound || !post.Published {
		return Comment{}, reject(LinkbackPostNotFound, fmt.Errorf("post %q: %w", postSlug, ErrNotFound))
	}

	exists, err := li.store.HasLinkback(blog.Slug, post.Slug, req.Kind, req.Source)
	if err != nil {
		return Comment{}, err
	}
	if exists {
		return Comment{}, reject(LinkbackDuplicate, fmt.Errorf("%s from %s: %w", req.Kind, req.Source, ErrConflict))
	}

	comment, err := NewLinkbackComment(blog.Slug, post.Slug, req.Kind, req.Source, req.IP)
	if err != nil {
		return Comment{}, err
	}
	comment.Name = StripHTML(req.Title)
	comment.Body = sanitizeExcerpt(req.Excerpt)
	comment.BlogName = StripHTML(req.BlogName)
	if err := li.store.CreateComment(comment); err != nil {
		return Comment{}, err
	}

	li.queueModerationAlert(blog, post, comment)
	return comment, nil
}

// queueModerationAlert defers a notification to the post's author. It never
// blocks and never affects the protocol response.
func (li *LinkbackIngestor) queueModerationAlert(blog Blog, post Post, comment Comment) {
	if !blog.ModerationAlert || li.notifier == nil {
		return
	}
	author, err := li.store.GetAuthor(blog.Slug, post.AuthorSlug)
	if err != nil || author.Email == "" {
		return
	}
	subject := fmt.Sprintf("%s - Comment Awaiting Moderation", blog.Title)
	body := fmt.Sprintf("A %s from %s was received on %q and is awaiting moderation.",
		comment.Kind, comment.SourceURL, post.Title)
	li.notifier.Enqueue(author.Email, subject, body)
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
