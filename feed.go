package bloghost

import (
	"bytes"
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// feedCacheTTL is the default expiry for a freshly rendered feed entry in
// the durable cache; invalidation rewrites or deletes it sooner.
const feedCacheTTL = 24 * time.Hour

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// handleFeed serves GET /:blog/feed. The rendered feed is the one expensive
// derived resource kept in the durable cache tier; reads go through it and a
// miss renders and refills it.
func (a *App) handleFeed(c echo.Context) error {
	blog, err := a.Store.GetBlog(c.Param("blog"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.String(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		}
		return err
	}

	feedPath := blog.Path() + "/feed"
	now := time.Now()
	if body, ok, err := a.Store.GetCachedHTML(feedPath, now); err == nil && ok {
		return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(body))
	} else if err != nil {
		a.logger.Error("feed cache read failed", slog.String("path", feedPath), slog.Any("error", err))
	}

	body, err := a.renderFeed(blog, hostURL(c), now)
	if err != nil {
		return err
	}
	if err := a.Store.PutCachedHTML(feedPath, string(body), now.Add(feedCacheTTL)); err != nil {
		a.logger.Error("feed cache write failed", slog.String("path", feedPath), slog.Any("error", err))
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

// renderFeed builds the RSS document for every published post that is
// already visible (future-dated posts stay out until their timestamp
// passes).
func (a *App) renderFeed(blog Blog, host string, now time.Time) ([]byte, error) {
	posts, err := a.Store.ListPosts(blog.Slug, true)
	if err != nil {
		return nil, err
	}

	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		if p.Timestamp.After(now) {
			continue
		}
		postURL := host + p.Path()
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: StripHTML(p.Body),
			PubDate:     p.Timestamp.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       blog.Title,
			Link:        host + blog.Path(),
			Description: blog.Description,
			Items:       items,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(feed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
