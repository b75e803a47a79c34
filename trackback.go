package bloghost

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleTrackback serves POST /:blog/trackback/:slug. The response is always
// HTTP 200 with the small trackback XML body; failures carry error code 1 and
// a message.
func (a *App) handleTrackback(c echo.Context) error {
	blogSlug := c.Param("blog")
	postSlug := c.Param("slug")

	if !a.limiter.Allow(c.RealIP()) {
		linkbacksTotal.WithLabelValues("trackback", "denied").Inc()
		return trackbackXML(c, "This blog does not have trackbacks enabled.")
	}

	_, err := a.Linkbacks.Ingest(LinkbackRequest{
		BlogSlug: blogSlug,
		Kind:     CommentTrackback,
		HostURL:  hostURL(c),
		Source:   c.FormValue("url"),
		PostSlug: postSlug,
		Title:    c.FormValue("title"),
		Excerpt:  c.FormValue("excerpt"),
		BlogName: c.FormValue("blog_name"),
		IP:       c.RealIP(),
	})
	if err != nil {
		linkbacksTotal.WithLabelValues("trackback", "rejected").Inc()
		return trackbackXML(c, trackbackMessage(err, postSlug))
	}

	linkbacksTotal.WithLabelValues("trackback", "accepted").Inc()
	return trackbackXML(c, "")
}

func trackbackMessage(err error, postSlug string) string {
	var le *LinkbackError
	if !errors.As(err, &le) {
		return "Invalid request."
	}
	switch le.Reason {
	case LinkbackBlogNotFound:
		return "There is no blog at this URL."
	case LinkbackDisabled:
		return "This blog does not have trackbacks enabled."
	case LinkbackPostIDMissing:
		return "Missing post ID."
	case LinkbackPostNotFound:
		return "There is no post with ID " + postSlug
	case LinkbackDuplicate:
		return "This trackback already exists."
	default:
		return "Invalid request."
	}
}

// trackbackXML writes the trackback response body; an empty message means
// success.
func trackbackXML(c echo.Context, message string) error {
	var body string
	if message == "" {
		body = "<response><error>0</error></response>"
	} else {
		body = fmt.Sprintf("<response><error>1</error><message>%s</message></response>", xmlEscape(message))
	}
	return c.Blob(http.StatusOK, "text/xml; charset=utf-8", []byte(`<?xml version="1.0" encoding="utf-8"?>`+"\n"+body))
}
