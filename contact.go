package bloghost

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleContact serves POST /:blog/contact — the public contact form, the
// bot-defense token's main customer. The page itself is rendered by the
// tenant's template collaborator; only the write path lives here.
func (a *App) handleContact(c echo.Context) error {
	blog, err := a.Store.GetBlog(c.Param("blog"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.String(http.StatusForbidden, http.StatusText(http.StatusForbidden))
		}
		return err
	}
	if !blog.EnableContact || blog.AdminEmail == "" {
		return c.String(http.StatusForbidden, http.StatusText(http.StatusForbidden))
	}

	contactPath := blog.Path() + "/contact"
	bot, err := a.botProtection(c, contactPath, contactPath)
	if err != nil {
		return err
	}
	if bot {
		return nil
	}

	from := strings.TrimSpace(c.FormValue("email"))
	subject := strings.TrimSpace(c.FormValue("subject"))
	body := strings.TrimSpace(c.FormValue("body"))
	if body == "" {
		return c.Redirect(http.StatusFound, contactPath+"?error=1")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return c.Redirect(http.StatusFound, contactPath+"?error=1")
	}

	recipients, err := a.contactRecipients(blog, c.FormValue("author"))
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return c.Redirect(http.StatusFound, contactPath+"?error=1")
	}

	if blog.Title != "" {
		subject = blog.Title + " - Contact Form Message: " + subject
	} else {
		subject = "Blog - Contact Form Message: " + subject
	}
	for _, to := range recipients {
		a.Notifier.Enqueue(to, subject, body+"\n\nReply to: "+from)
	}
	return c.Redirect(http.StatusFound, contactPath)
}

// contactRecipients resolves the form's author selection: "all" fans out to
// every author with an email address, otherwise the named author must have
// one.
func (a *App) contactRecipients(blog Blog, selection string) ([]string, error) {
	if selection == "" || selection == "all" {
		authors, err := a.Store.ListAuthors(blog.Slug)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, author := range authors {
			if author.Email != "" {
				out = append(out, author.Email)
			}
		}
		if len(out) == 0 {
			out = append(out, blog.AdminEmail)
		}
		return out, nil
	}
	author, err := a.Store.GetAuthor(blog.Slug, selection)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if author.Email == "" {
		return nil, nil
	}
	return []string{author.Email}, nil
}
