package bloghost

import (
	"database/sql"
	"fmt"
)

// Rekey replaces a slug-keyed entity's immutable identity. The entity's full
// attribute set is captured, the old row is deleted and the new one inserted
// under (newParent, newSlug) in a single transaction — that swap is the only
// atomic part. Direct children are then recursively re-keyed under the new
// entity (each keeping its own slug) and every cross-entity-group reference
// to the old key is rewritten, as a sequence of independent writes.
//
// If any cascade write fails after the primary swap committed, the new ref is
// still returned together with a *PartialRekeyError listing the failures so
// the caller can schedule a repair pass. Concurrent re-keys over overlapping
// scopes are not serialized here; callers must prevent them.
func (s *Store) Rekey(ref EntityRef, newSlug, newParent string) (EntityRef, error) {
	if newSlug == "" {
		newSlug = ref.Slug
	}
	if newParent == "" || ref.Kind == KindBlog {
		newParent = ref.Blog
	}
	if newSlug == ref.Slug && newParent == ref.Blog {
		return ref, nil
	}
	switch ref.Kind {
	case KindBlog:
		return s.rekeyBlog(ref.Slug, newSlug)
	case KindAuthor:
		return s.rekeyAuthor(ref, newSlug, newParent)
	case KindTag:
		return s.rekeyTag(ref, newSlug, newParent)
	case KindPost:
		return s.rekeyPost(ref, newSlug, newParent)
	}
	return EntityRef{}, &ValidationError{Field: "kind", Message: "unknown entity kind"}
}

// swap runs delete-old plus insert-new inside one transaction.
func (s *Store) swap(del func(*sql.Tx) error, ins func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := del(tx); err != nil {
		return err
	}
	if err := ins(tx); err != nil {
		if isConflict(err) {
			return ErrConflict
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) rekeyBlog(oldSlug, newSlug string) (EntityRef, error) {
	blog, err := s.GetBlog(oldSlug)
	if err != nil {
		return EntityRef{}, err
	}
	authors, err := s.ListAuthors(oldSlug)
	if err != nil {
		return EntityRef{}, err
	}
	tags, err := s.ListTags(oldSlug)
	if err != nil {
		return EntityRef{}, err
	}
	posts, err := s.ListPosts(oldSlug, false)
	if err != nil {
		return EntityRef{}, err
	}

	blog.Slug = newSlug
	err = s.swap(
		func(tx *sql.Tx) error {
			res, err := tx.Exec(`DELETE FROM blogs WHERE slug = ?`, oldSlug)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
			return nil
		},
		func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				blog.Slug, blog.Title, blog.Description, blog.Template, blog.AdminEmail, blog.PostsPerPage,
				joinList(blog.Blocklist), boolInt(blog.EnableComments), boolInt(blog.EnableLinkbacks),
				boolInt(blog.EnableContact), boolInt(blog.AuthorPages), boolInt(blog.ModerationAlert))
			return err
		},
	)
	if err != nil {
		return EntityRef{}, err
	}

	newRef := EntityRef{Kind: KindBlog, Slug: newSlug}
	var failures []error
	for _, a := range authors {
		if _, err := s.rekeyAuthor(EntityRef{Kind: KindAuthor, Blog: oldSlug, Slug: a.Slug}, a.Slug, newSlug); err != nil {
			failures = append(failures, fmt.Errorf("author %s: %w", a.Slug, err))
		}
	}
	for _, t := range tags {
		if _, err := s.rekeyTag(EntityRef{Kind: KindTag, Blog: oldSlug, Slug: t.Slug}, t.Slug, newSlug); err != nil {
			failures = append(failures, fmt.Errorf("tag %s: %w", t.Slug, err))
		}
	}
	for _, p := range posts {
		if _, err := s.rekeyPost(EntityRef{Kind: KindPost, Blog: oldSlug, Slug: p.Slug}, p.Slug, newSlug); err != nil {
			failures = append(failures, fmt.Errorf("post %s: %w", p.Slug, err))
		}
	}
	if len(failures) > 0 {
		return newRef, &PartialRekeyError{Ref: newRef, Failures: failures}
	}
	return newRef, nil
}

func (s *Store) rekeyAuthor(ref EntityRef, newSlug, newBlog string) (EntityRef, error) {
	author, err := s.GetAuthor(ref.Blog, ref.Slug)
	if err != nil {
		return EntityRef{}, err
	}

	author.BlogSlug, author.Slug = newBlog, newSlug
	err = s.swap(
		func(tx *sql.Tx) error {
			res, err := tx.Exec(`DELETE FROM authors WHERE blog_slug = ? AND slug = ?`, ref.Blog, ref.Slug)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
			return nil
		},
		func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO authors (blog_slug, slug, name, url, email) VALUES (?, ?, ?, ?, ?)`,
				author.BlogSlug, author.Slug, author.Name, author.URL, author.Email)
			return err
		},
	)
	if err != nil {
		return EntityRef{}, err
	}

	// Cross-entity-group rewrites: every post and comment credited to the
	// old author key moves to the new one. Independent writes, not atomic
	// with the swap above.
	newRef := EntityRef{Kind: KindAuthor, Blog: newBlog, Slug: newSlug}
	var failures []error
	if _, err := s.db.Exec(`UPDATE posts SET author_slug = ? WHERE blog_slug = ? AND author_slug = ?`,
		newSlug, ref.Blog, ref.Slug); err != nil {
		failures = append(failures, fmt.Errorf("post author references: %w", err))
	}
	if _, err := s.db.Exec(`UPDATE comments SET author_slug = ? WHERE blog_slug = ? AND author_slug = ?`,
		newSlug, ref.Blog, ref.Slug); err != nil {
		failures = append(failures, fmt.Errorf("comment author references: %w", err))
	}
	if len(failures) > 0 {
		return newRef, &PartialRekeyError{Ref: newRef, Failures: failures}
	}
	return newRef, nil
}

func (s *Store) rekeyTag(ref EntityRef, newSlug, newBlog string) (EntityRef, error) {
	tag, err := s.GetTag(ref.Blog, ref.Slug)
	if err != nil {
		return EntityRef{}, err
	}

	tag.BlogSlug, tag.Slug = newBlog, newSlug
	err = s.swap(
		func(tx *sql.Tx) error {
			res, err := tx.Exec(`DELETE FROM tags WHERE blog_slug = ? AND slug = ?`, ref.Blog, ref.Slug)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
			return nil
		},
		func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO tags (blog_slug, slug, name) VALUES (?, ?, ?)`, tag.BlogSlug, tag.Slug, tag.Name)
			return err
		},
	)
	if err != nil {
		return EntityRef{}, err
	}

	newRef := EntityRef{Kind: KindTag, Blog: newBlog, Slug: newSlug}
	var failures []error
	if _, err := s.db.Exec(`UPDATE post_tags SET tag_slug = ? WHERE blog_slug = ? AND tag_slug = ?`,
		newSlug, ref.Blog, ref.Slug); err != nil {
		failures = append(failures, fmt.Errorf("post tag references: %w", err))
	}
	if len(failures) > 0 {
		return newRef, &PartialRekeyError{Ref: newRef, Failures: failures}
	}
	return newRef, nil
}

func (s *Store) rekeyPost(ref EntityRef, newSlug, newBlog string) (EntityRef, error) {
	post, err := s.GetPost(ref.Blog, ref.Slug)
	if err != nil {
		return EntityRef{}, err
	}

	post.BlogSlug, post.Slug = newBlog, newSlug
	err = s.swap(
		func(tx *sql.Tx) error {
			res, err := tx.Exec(`DELETE FROM posts WHERE blog_slug = ? AND slug = ?`, ref.Blog, ref.Slug)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
			if _, err := tx.Exec(`DELETE FROM post_tags WHERE blog_slug = ? AND post_slug = ?`, ref.Blog, ref.Slug); err != nil {
				return err
			}
			return nil
		},
		func(tx *sql.Tx) error {
			if _, err := tx.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				post.BlogSlug, post.Slug, post.Title, post.Body, boolInt(post.Published),
				post.Timestamp.UTC().Format(timeLayout), post.AuthorSlug); err != nil {
				return err
			}
			for _, tag := range post.TagSlugs {
				if _, err := tx.Exec(`INSERT INTO post_tags (blog_slug, post_slug, tag_slug) VALUES (?, ?, ?)`,
					post.BlogSlug, post.Slug, tag); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		return EntityRef{}, err
	}

	// Child cascade: comments are keyed by id, so re-parenting them is a
	// reference rewrite rather than a delete-and-recreate.
	newRef := EntityRef{Kind: KindPost, Blog: newBlog, Slug: newSlug}
	var failures []error
	if _, err := s.db.Exec(`UPDATE comments SET blog_slug = ?, post_slug = ? WHERE blog_slug = ? AND post_slug = ?`,
		newBlog, newSlug, ref.Blog, ref.Slug); err != nil {
		failures = append(failures, fmt.Errorf("comments: %w", err))
	}
	if len(failures) > 0 {
		return newRef, &PartialRekeyError{Ref: newRef, Failures: failures}
	}
	return newRef, nil
}
