package bloghost

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleWebmention serves POST /:blog/webmention with form fields source and
// target. Success is a 202 with a plain-text body; failures use bare HTTP
// status codes.
func (a *App) handleWebmention(c echo.Context) error {
	blogSlug := c.Param("blog")
	if !a.limiter.Allow(c.RealIP()) {
		linkbacksTotal.WithLabelValues("webmention", "denied").Inc()
		return c.String(http.StatusForbidden, http.StatusText(http.StatusForbidden))
	}

	_, err := a.Linkbacks.Ingest(LinkbackRequest{
		BlogSlug: blogSlug,
		Kind:     CommentWebmention,
		HostURL:  hostURL(c),
		Source:   c.FormValue("source"),
		Target:   c.FormValue("target"),
		IP:       c.RealIP(),
	})
	if err != nil {
		linkbacksTotal.WithLabelValues("webmention", "rejected").Inc()
		code := webmentionStatus(err)
		return c.String(code, http.StatusText(code))
	}

	linkbacksTotal.WithLabelValues("webmention", "accepted").Inc()
	return c.String(http.StatusAccepted, "Awaiting Moderation")
}

func webmentionStatus(err error) int {
	var le *LinkbackError
	if !errors.As(err, &le) {
		return http.StatusBadRequest
	}
	switch le.Reason {
	case LinkbackBlogNotFound, LinkbackPostIDMissing, LinkbackPostNotFound:
		return http.StatusNotFound
	case LinkbackDisabled:
		return http.StatusForbidden
	default:
		// Validation failures and duplicate registrations both map to 400.
		return http.StatusBadRequest
	}
}
