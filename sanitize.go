package bloghost

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes all markup from untrusted input. <style> and <script>
// elements are dropped along with their contents; every other tag is
// stripped while its inner text is kept.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	depth := 0 // nesting inside style/script
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isDropped(string(name)) {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isDropped(string(name)) && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isDropped(tag string) bool {
	return tag == "style" || tag == "script"
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// LinkURLs wraps bare http and https URLs in anchor tags.
func LinkURLs(s string) string {
	return urlPattern.ReplaceAllString(s, `<a href="${0}" target="_blank">${0}</a>`)
}

// sanitizeExcerpt prepares a trackback excerpt for storage: markup stripped,
// bare URLs turned into links, and CRLF linebreaks rendered as HTML breaks.
func sanitizeExcerpt(excerpt string) string {
	excerpt = StripHTML(excerpt)
	if excerpt == "" {
		return ""
	}
	excerpt = LinkURLs(excerpt)
	return strings.ReplaceAll(excerpt, "\r\n", "<br/>")
}
