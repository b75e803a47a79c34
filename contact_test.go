package bloghost

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyRequiresSameOriginReferer(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	get := func(referer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/blog/verify?url=/blog/contact", nil)
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, req)
		return rec
	}

	rec := get("http://example.com/blog/contact")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload["token"], 128, "token is hex-encoded sha512")

	ok, err := a.Tokens.Verify("/blog/contact", payload["token"], time.Now())
	require.NoError(t, err)
	require.True(t, ok, "issued token must verify for the same URL")

	require.Equal(t, http.StatusBadRequest, get("").Code)
	require.Equal(t, http.StatusBadRequest, get("http://evil.example.net/page").Code)
}

func contactForm(token string) url.Values {
	return url.Values{
		"email":   {"visitor@example.net"},
		"subject": {"Hello"},
		"body":    {"A question about your blog."},
		"token":   {token},
	}
}

func freshToken(t *testing.T, a *App, formPath string) string {
	t.Helper()
	token, err := a.Tokens.Generate(formPath, time.Now())
	require.NoError(t, err)
	return token
}

func TestContactDeliversMail(t *testing.T) {
	a, mailer := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	rec := postForm(a, "/blog/contact", contactForm(freshToken(t, a, "/blog/contact")))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/blog/contact", rec.Header().Get("Location"))

	a.Notifier.Close() // flush
	require.Equal(t, 1, mailer.count())
	require.Equal(t, "admin@example.com", mailer.last().to, "no authors: falls back to the admin")
	require.Equal(t, "Test Blog - Contact Form Message: Hello", mailer.last().subject)
	require.Contains(t, mailer.last().body, "Reply to: visitor@example.net")
}

func TestContactHoneypotDisguisedAsSuccess(t *testing.T) {
	a, mailer := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	form := contactForm(freshToken(t, a, "/blog/contact"))
	form.Set("honeypot", "gotcha")
	rec := postForm(a, "/blog/contact", form)

	// The bot sees exactly what a real submitter sees.
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/blog/contact", rec.Header().Get("Location"))

	a.Notifier.Close()
	require.Equal(t, 0, mailer.count(), "honeypot submissions must not send mail")
}

func TestContactBadTokenDisguisedAsSuccess(t *testing.T) {
	a, mailer := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	rec := postForm(a, "/blog/contact", contactForm("bogus-token"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/blog/contact", rec.Header().Get("Location"))

	a.Notifier.Close()
	require.Equal(t, 0, mailer.count())
}

func TestContactValidation(t *testing.T) {
	a, mailer := newTestApp(t)
	require.NoError(t, a.Store.CreateBlog(testBlog("blog")))

	form := contactForm(freshToken(t, a, "/blog/contact"))
	form.Set("body", "")
	rec := postForm(a, "/blog/contact", form)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/blog/contact?error=1", rec.Header().Get("Location"))

	form = contactForm(freshToken(t, a, "/blog/contact"))
	form.Set("email", "not an address")
	rec = postForm(a, "/blog/contact", form)
	require.Equal(t, "/blog/contact?error=1", rec.Header().Get("Location"))

	a.Notifier.Close()
	require.Equal(t, 0, mailer.count())
}

func TestContactDisabled(t *testing.T) {
	a, _ := newTestApp(t)
	blog := testBlog("quiet")
	blog.EnableContact = false
	require.NoError(t, a.Store.CreateBlog(blog))

	rec := postForm(a, "/quiet/contact", contactForm(freshToken(t, a, "/quiet/contact")))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = postForm(a, "/nothing/contact", contactForm("x"))
	require.Equal(t, http.StatusForbidden, rec.Code, "unknown blog is indistinguishable from disabled contact")
}

func TestContactRecipients(t *testing.T) {
	a, _ := newTestApp(t)
	blog := testBlog("blog")
	require.NoError(t, a.Store.CreateBlog(blog))
	require.NoError(t, a.Store.CreateAuthor(Author{BlogSlug: "blog", Slug: "with-mail", Name: "A", Email: "a@example.com"}))
	require.NoError(t, a.Store.CreateAuthor(Author{BlogSlug: "blog", Slug: "no-mail", Name: "B"}))

	got, err := a.contactRecipients(blog, "all")
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com"}, got)

	got, err = a.contactRecipients(blog, "with-mail")
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com"}, got)

	got, err = a.contactRecipients(blog, "no-mail")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = a.contactRecipients(blog, "nothing")
	require.NoError(t, err)
	require.Empty(t, got)
}
