package bloghost

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps and cache expiries are stored in SQLite. The
// zero-padded fraction keeps stored values lexicographically sortable so SQL
// ORDER BY and range comparisons work on the raw text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store wraps a SQLite database holding every tenant's content plus the
// shared settings and durable HTML cache tables.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, a busy timeout so writers wait
	// instead of failing with SQLITE_BUSY, and synchronous=NORMAL which is
	// safe under WAL without an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blogs (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    template TEXT NOT NULL DEFAULT '',
    admin_email TEXT NOT NULL DEFAULT '',
    posts_per_page INTEGER NOT NULL DEFAULT 10,
    blocklist TEXT NOT NULL DEFAULT ',,',
    enable_comments INTEGER NOT NULL DEFAULT 0,
    enable_linkbacks INTEGER NOT NULL DEFAULT 0,
    enable_contact INTEGER NOT NULL DEFAULT 0,
    author_pages INTEGER NOT NULL DEFAULT 0,
    moderation_alert INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS authors (
    blog_slug TEXT NOT NULL,
    slug TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (blog_slug, slug)
);
CREATE TABLE IF NOT EXISTS tags (
    blog_slug TEXT NOT NULL,
    slug TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (blog_slug, slug)
);
CREATE TABLE IF NOT EXISTS posts (
    blog_slug TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 0,
    timestamp TEXT NOT NULL,
    author_slug TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (blog_slug, slug)
);
CREATE TABLE IF NOT EXISTS post_tags (
    blog_slug TEXT NOT NULL,
    post_slug TEXT NOT NULL,
    tag_slug TEXT NOT NULL,
    PRIMARY KEY (blog_slug, post_slug, tag_slug)
);
CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    blog_slug TEXT NOT NULL,
    post_slug TEXT NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    author_slug TEXT NOT NULL DEFAULT '',
    source_url TEXT NOT NULL DEFAULT '',
    blog_name TEXT NOT NULL DEFAULT '',
    ip_address TEXT NOT NULL DEFAULT '',
    approved INTEGER NOT NULL DEFAULT 0,
    timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (blog_slug, post_slug);
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS html_cache (
    path TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    expires TEXT NOT NULL
);
`)
	return err
}

// isConflict reports whether err is a SQLite uniqueness violation.
func isConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// joinList stores a string slice as a comma-wrapped string (",a,b,") so
// membership can be probed with instr in SQL.
func joinList(vals []string) string {
	return "," + strings.Join(vals, ",") + ","
}

// parseList splits a comma-wrapped string back into a slice.
func parseList(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// slugTaken reports whether a sibling of the given kind under parentBlog
// already holds slug.
func (s *Store) slugTaken(kind EntityKind, parentBlog, slug string) (bool, error) {
	var query string
	var args []any
	switch kind {
	case KindBlog:
		query, args = `SELECT 1 FROM blogs WHERE slug = ?`, []any{slug}
	case KindAuthor:
		query, args = `SELECT 1 FROM authors WHERE blog_slug = ? AND slug = ?`, []any{parentBlog, slug}
	case KindTag:
		query, args = `SELECT 1 FROM tags WHERE blog_slug = ? AND slug = ?`, []any{parentBlog, slug}
	case KindPost:
		query, args = `SELECT 1 FROM posts WHERE blog_slug = ? AND slug = ?`, []any{parentBlog, slug}
	default:
		return false, &ValidationError{Field: "kind", Message: "unknown entity kind"}
	}
	var one int
	err := s.db.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ---- blogs ----

const blogColumns = `slug, title, description, template, admin_email, posts_per_page, blocklist,
	enable_comments, enable_linkbacks, enable_contact, author_pages, moderation_alert`

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var b Blog
	var blocklist string
	var comments, linkbacks, contact, authorPages, alert int
	err := row.Scan(&b.Slug, &b.Title, &b.Description, &b.Template, &b.AdminEmail, &b.PostsPerPage,
		&blocklist, &comments, &linkbacks, &contact, &authorPages, &alert)
	if err != nil {
		return Blog{}, err
	}
	b.Blocklist = parseList(blocklist)
	b.EnableComments = comments == 1
	b.EnableLinkbacks = linkbacks == 1
	b.EnableContact = contact == 1
	b.AuthorPages = authorPages == 1
	b.ModerationAlert = alert == 1
	return b, nil
}

// CreateBlog inserts a new blog. A slug collision returns ErrConflict.
func (s *Store) CreateBlog(b Blog) error {
	_, err := s.db.Exec(`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Slug, b.Title, b.Description, b.Template, b.AdminEmail, b.PostsPerPage, joinList(b.Blocklist),
		boolInt(b.EnableComments), boolInt(b.EnableLinkbacks), boolInt(b.EnableContact),
		boolInt(b.AuthorPages), boolInt(b.ModerationAlert))
	if isConflict(err) {
		return ErrConflict
	}
	return err
}

// UpdateBlog rewrites a blog's attributes in place. The slug is the key and
// cannot change here; use Rekey.
func (s *Store) UpdateBlog(b Blog) error {
	res, err := s.db.Exec(`UPDATE blogs SET title = ?, description = ?, template = ?, admin_email = ?,
		posts_per_page = ?, blocklist = ?, enable_comments = ?, enable_linkbacks = ?, enable_contact = ?,
		author_pages = ?, moderation_alert = ? WHERE slug = ?`,
		b.Title, b.Description, b.Template, b.AdminEmail, b.PostsPerPage, joinList(b.Blocklist),
		boolInt(b.EnableComments), boolInt(b.EnableLinkbacks), boolInt(b.EnableContact),
		boolInt(b.AuthorPages), boolInt(b.ModerationAlert), b.Slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBlog returns a blog by slug.
func (s *Store) GetBlog(slug string) (Blog, error) {
	row := s.db.QueryRow(`SELECT `+blogColumns+` FROM blogs WHERE slug = ?`, slug)
	b, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return Blog{}, ErrNotFound
	}
	return b, err
}

// DeleteBlog removes a blog and all of its descendants.
func (s *Store) DeleteBlog(slug string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range []string{
		`DELETE FROM comments WHERE blog_slug = ?`,
		`DELETE FROM post_tags WHERE blog_slug = ?`,
		`DELETE FROM posts WHERE blog_slug = ?`,
		`DELETE FROM tags WHERE blog_slug = ?`,
		`DELETE FROM authors WHERE blog_slug = ?`,
		`DELETE FROM blogs WHERE slug = ?`,
	} {
		if _, err := tx.Exec(stmt, slug); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- authors ----

// CreateAuthor inserts a new author under a blog.
func (s *Store) CreateAuthor(a Author) error {
	_, err := s.db.Exec(`INSERT INTO authors (blog_slug, slug, name, url, email) VALUES (?, ?, ?, ?, ?)`,
		a.BlogSlug, a.Slug, a.Name, a.URL, a.Email)
	if isConflict(err) {
		return ErrConflict
	}
	return err
}

// UpdateAuthor rewrites an author's attributes in place.
func (s *Store) UpdateAuthor(a Author) error {
	res, err := s.db.Exec(`UPDATE authors SET name = ?, url = ?, email = ? WHERE blog_slug = ? AND slug = ?`,
		a.Name, a.URL, a.Email, a.BlogSlug, a.Slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAuthor returns an author by blog and slug.
func (s *Store) GetAuthor(blogSlug, slug string) (Author, error) {
	var a Author
	err := s.db.QueryRow(`SELECT blog_slug, slug, name, url, email FROM authors WHERE blog_slug = ? AND slug = ?`,
		blogSlug, slug).Scan(&a.BlogSlug, &a.Slug, &a.Name, &a.URL, &a.Email)
	if err == sql.ErrNoRows {
		return Author{}, ErrNotFound
	}
	return a, err
}

// ListAuthors returns all authors of a blog ordered by slug.
func (s *Store) ListAuthors(blogSlug string) ([]Author, error) {
	rows, err := s.db.Query(`SELECT blog_slug, slug, name, url, email FROM authors WHERE blog_slug = ? ORDER BY slug`, blogSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.BlogSlug, &a.Slug, &a.Name, &a.URL, &a.Email); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// DeleteAuthor removes an author.
func (s *Store) DeleteAuthor(blogSlug, slug string) error {
	_, err := s.db.Exec(`DELETE FROM authors WHERE blog_slug = ? AND slug = ?`, blogSlug, slug)
	return err
}

// ---- tags ----

// CreateTag inserts a new tag under a blog.
func (s *Store) CreateTag(t Tag) error {
	_, err := s.db.Exec(`INSERT INTO tags (blog_slug, slug, name) VALUES (?, ?, ?)`, t.BlogSlug, t.Slug, t.Name)
	if isConflict(err) {
		return ErrConflict
	}
	return err
}

// GetTag returns a tag by blog and slug.
func (s *Store) GetTag(blogSlug, slug string) (Tag, error) {
	var t Tag
	err := s.db.QueryRow(`SELECT blog_slug, slug, name FROM tags WHERE blog_slug = ? AND slug = ?`,
		blogSlug, slug).Scan(&t.BlogSlug, &t.Slug, &t.Name)
	if err == sql.ErrNoRows {
		return Tag{}, ErrNotFound
	}
	return t, err
}

// ListTags returns all tags of a blog ordered by slug.
func (s *Store) ListTags(blogSlug string) ([]Tag, error) {
	rows, err := s.db.Query(`SELECT blog_slug, slug, name FROM tags WHERE blog_slug = ? ORDER BY slug`, blogSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.BlogSlug, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes a tag and its post associations.
func (s *Store) DeleteTag(blogSlug, slug string) error {
	if _, err := s.db.Exec(`DELETE FROM post_tags WHERE blog_slug = ? AND tag_slug = ?`, blogSlug, slug); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM tags WHERE blog_slug = ? AND slug = ?`, blogSlug, slug)
	return err
}

// ---- posts ----

const postColumns = `blog_slug, slug, title, body, published, timestamp, author_slug`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var published int
	var ts string
	err := row.Scan(&p.BlogSlug, &p.Slug, &p.Title, &p.Body, &published, &ts, &p.AuthorSlug)
	if err != nil {
		return Post{}, err
	}
	p.Published = published == 1
	p.Timestamp, err = time.Parse(timeLayout, ts)
	return p, err
}

// CreatePost inserts a new post and its tag references.
func (s *Store) CreatePost(p Post) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BlogSlug, p.Slug, p.Title, p.Body, boolInt(p.Published), p.Timestamp.UTC().Format(timeLayout), p.AuthorSlug)
	if isConflict(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	for _, tag := range p.TagSlugs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO post_tags (blog_slug, post_slug, tag_slug) VALUES (?, ?, ?)`,
			p.BlogSlug, p.Slug, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdatePost rewrites a post's attributes and tag set in place.
func (s *Store) UpdatePost(p Post) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`UPDATE posts SET title = ?, body = ?, published = ?, timestamp = ?, author_slug = ?
		WHERE blog_slug = ? AND slug = ?`,
		p.Title, p.Body, boolInt(p.Published), p.Timestamp.UTC().Format(timeLayout), p.AuthorSlug, p.BlogSlug, p.Slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE blog_slug = ? AND post_slug = ?`, p.BlogSlug, p.Slug); err != nil {
		return err
	}
	for _, tag := range p.TagSlugs {
		if _, err := tx.Exec(`INSERT INTO post_tags (blog_slug, post_slug, tag_slug) VALUES (?, ?, ?)`,
			p.BlogSlug, p.Slug, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPost returns a post by blog and slug regardless of published state.
func (s *Store) GetPost(blogSlug, slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE blog_slug = ? AND slug = ?`, blogSlug, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	p.TagSlugs, err = s.postTags(blogSlug, slug)
	return p, err
}

func (s *Store) postTags(blogSlug, postSlug string) ([]string, error) {
	rows, err := s.db.Query(`SELECT tag_slug FROM post_tags WHERE blog_slug = ? AND post_slug = ? ORDER BY tag_slug`,
		blogSlug, postSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListPosts returns a blog's posts ordered by timestamp descending,
// optionally restricted to published ones. Tag references are not loaded.
func (s *Store) ListPosts(blogSlug string, publishedOnly bool) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE blog_slug = ?`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY timestamp DESC`
	rows, err := s.db.Query(query, blogSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPostsByAuthor returns the number of published posts credited to an
// author.
func (s *Store) CountPostsByAuthor(blogSlug, authorSlug string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE blog_slug = ? AND author_slug = ? AND published = 1`,
		blogSlug, authorSlug).Scan(&n)
	return n, err
}

// DeletePost removes a post, its tag references, and its comments.
func (s *Store) DeletePost(blogSlug, slug string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range []string{
		`DELETE FROM comments WHERE blog_slug = ? AND post_slug = ?`,
		`DELETE FROM post_tags WHERE blog_slug = ? AND post_slug = ?`,
		`DELETE FROM posts WHERE blog_slug = ? AND slug = ?`,
	} {
		if _, err := tx.Exec(stmt, blogSlug, slug); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---- comments ----

const commentColumns = `id, blog_slug, post_slug, kind, name, url, email, body, author_slug,
	source_url, blog_name, ip_address, approved, timestamp`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var c Comment
	var approved int
	var ts string
	err := row.Scan(&c.ID, &c.BlogSlug, &c.PostSlug, &c.Kind, &c.Name, &c.URL, &c.Email, &c.Body,
		&c.AuthorSlug, &c.SourceURL, &c.BlogName, &c.IPAddress, &approved, &ts)
	if err != nil {
		return Comment{}, err
	}
	c.Approved = approved == 1
	c.Timestamp, err = time.Parse(timeLayout, ts)
	return c, err
}

// CreateComment inserts a comment under its post.
func (s *Store) CreateComment(c Comment) error {
	_, err := s.db.Exec(`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.BlogSlug, c.PostSlug, string(c.Kind), c.Name, c.URL, c.Email, c.Body, c.AuthorSlug,
		c.SourceURL, c.BlogName, c.IPAddress, boolInt(c.Approved), c.Timestamp.UTC().Format(timeLayout))
	if isConflict(err) {
		return ErrConflict
	}
	return err
}

// ListComments returns all comments on a post ordered by timestamp.
func (s *Store) ListComments(blogSlug, postSlug string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT `+commentColumns+` FROM comments WHERE blog_slug = ? AND post_slug = ? ORDER BY timestamp`,
		blogSlug, postSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// HasLinkback reports whether a linkback of the given subtype from sourceURL
// is already registered on the post.
func (s *Store) HasLinkback(blogSlug, postSlug string, kind CommentKind, sourceURL string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM comments WHERE blog_slug = ? AND post_slug = ? AND kind = ? AND source_url = ?`,
		blogSlug, postSlug, string(kind), sourceURL).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetCommentApproved flips a comment's moderation flag.
func (s *Store) SetCommentApproved(id string, approved bool) error {
	res, err := s.db.Exec(`UPDATE comments SET approved = ? WHERE id = ?`, boolInt(approved), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes a comment by id.
func (s *Store) DeleteComment(id string) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	return err
}

// ---- settings ----

// GetSetting retrieves a setting value by key. Returns empty string if not
// found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ---- durable HTML cache ----

// GetCachedHTML returns a cached body for path if present and not expired.
func (s *Store) GetCachedHTML(path string, now time.Time) (string, bool, error) {
	var body, expires string
	err := s.db.QueryRow(`SELECT body, expires FROM html_cache WHERE path = ?`, path).Scan(&body, &expires)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	exp, err := time.Parse(timeLayout, expires)
	if err != nil {
		return "", false, err
	}
	if !exp.After(now) {
		return "", false, nil
	}
	return body, true, nil
}

// PutCachedHTML stores a cached body for path with an explicit expiry.
func (s *Store) PutCachedHTML(path, body string, expires time.Time) error {
	_, err := s.db.Exec(`INSERT INTO html_cache (path, body, expires) VALUES (?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET body = excluded.body, expires = excluded.expires`,
		path, body, expires.UTC().Format(timeLayout))
	return err
}

// SetCacheExpiry rewrites only the expiry of an existing cache entry. Missing
// entries are left missing.
func (s *Store) SetCacheExpiry(path string, expires time.Time) error {
	_, err := s.db.Exec(`UPDATE html_cache SET expires = ? WHERE path = ?`, expires.UTC().Format(timeLayout), path)
	return err
}

// CacheExpiry returns the stored expiry for path, or ErrNotFound.
func (s *Store) CacheExpiry(path string) (time.Time, error) {
	var expires string
	err := s.db.QueryRow(`SELECT expires FROM html_cache WHERE path = ?`, path).Scan(&expires)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(timeLayout, expires)
}

// DeleteCachedHTML drops a cache entry.
func (s *Store) DeleteCachedHTML(path string) error {
	_, err := s.db.Exec(`DELETE FROM html_cache WHERE path = ?`, path)
	return err
}

// PurgeExpiredHTML deletes every cache entry whose expiry has passed and
// returns how many were removed.
func (s *Store) PurgeExpiredHTML(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM html_cache WHERE expires <= ?`, now.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
