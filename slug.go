package bloghost

import (
	"fmt"
	"strings"
)

// maxSlugLen caps generated slugs; matches the storage column limit for
// titles.
const maxSlugLen = 500

// Slugify converts free text to a URL-safe slug: lowercase, spaces and
// slashes become hyphens, everything outside [a-z0-9-] is dropped, runs of
// hyphens collapse to one, and leading and trailing hyphens are stripped. Slugify is
// idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	hyphen := true // swallow leading separators
	for _, r := range text {
		switch {
		case r == ' ' || r == '/' || r == '-':
			if !hyphen {
				b.WriteByte('-')
				hyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			hyphen = false
		}
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return strings.TrimRight(slug, "-")
}

// MakeSlug generates a slug for name that is unique among siblings of the
// given kind under the parent blog scope (empty for blogs). If current is
// non-empty, a match against that slug is treated as the entity keeping its
// own slug rather than a collision. On a crowded base the suffixes -1, -2, …
// are probed in order.
//
// The probe is check-then-reserve and is not linearizable across concurrent
// callers; a collision that survives to commit time surfaces from the insert
// as ErrConflict instead of overwriting the sibling.
func (s *Store) MakeSlug(name, parentBlog string, kind EntityKind, current string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 1; ; i++ {
		taken, err := s.slugTaken(kind, parentBlog, slug)
		if err != nil {
			return "", err
		}
		if !taken || slug == current {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
