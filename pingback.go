package bloghost

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pingback fault codes, from the pingback specification.
const (
	pingbackFaultGeneric      = 0  // invalid or unsupported request
	pingbackFaultBlogNotFound = 32 // blog or post id not found
	pingbackFaultPostNotFound = 33 // post missing or unpublished
	pingbackFaultDuplicate    = 48 // pingback already registered
	pingbackFaultDenied       = 49 // access denied
)

const pingbackSuccess = "Pingback Receieved Successfully"

// maxLinkbackBody caps how much of a linkback request body is read.
const maxLinkbackBody = 64 << 10

// handlePingback serves POST /:blog/pingback. The envelope is XML-RPC; every
// outcome, success or fault, is an HTTP 200 with a text/xml body.
func (a *App) handlePingback(c echo.Context) error {
	blogSlug := c.Param("blog")
	if !a.limiter.Allow(c.RealIP()) {
		linkbacksTotal.WithLabelValues("pingback", "denied").Inc()
		return pingbackXML(c, xmlrpcFault(pingbackFaultDenied, "Access Denied"))
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxLinkbackBody))
	if err != nil {
		return pingbackXML(c, xmlrpcFault(pingbackFaultGeneric, "Invalid Request"))
	}
	call, err := parseXMLRPC(body)
	if err != nil {
		linkbacksTotal.WithLabelValues("pingback", "invalid").Inc()
		return pingbackXML(c, xmlrpcFault(pingbackFaultGeneric, "Invalid Request"))
	}
	if call.Method != "pingback.ping" {
		linkbacksTotal.WithLabelValues("pingback", "invalid").Inc()
		return pingbackXML(c, xmlrpcFault(pingbackFaultGeneric, "Unsupported Method"))
	}
	if len(call.Params) != 2 {
		linkbacksTotal.WithLabelValues("pingback", "invalid").Inc()
		return pingbackXML(c, xmlrpcFault(pingbackFaultGeneric, "Invalid Request"))
	}

	_, err = a.Linkbacks.Ingest(LinkbackRequest{
		BlogSlug: blogSlug,
		Kind:     CommentPingback,
		HostURL:  hostURL(c),
		Source:   call.Params[0].String(),
		Target:   call.Params[1].String(),
		IP:       c.RealIP(),
	})
	if err != nil {
		code, msg := pingbackFault(err)
		linkbacksTotal.WithLabelValues("pingback", "rejected").Inc()
		return pingbackXML(c, xmlrpcFault(code, msg))
	}

	linkbacksTotal.WithLabelValues("pingback", "accepted").Inc()
	return pingbackXML(c, xmlrpcResponse(pingbackSuccess))
}

func pingbackFault(err error) (int, string) {
	var le *LinkbackError
	if !errors.As(err, &le) {
		return pingbackFaultGeneric, "Invalid Request"
	}
	switch le.Reason {
	case LinkbackBlogNotFound:
		return pingbackFaultBlogNotFound, "Blog Not Found"
	case LinkbackPostIDMissing:
		return pingbackFaultBlogNotFound, "Post ID Not Found"
	case LinkbackPostNotFound:
		return pingbackFaultPostNotFound, "Post Not Found"
	case LinkbackDuplicate:
		return pingbackFaultDuplicate, "Pingback Already Registered"
	case LinkbackDisabled:
		return pingbackFaultDenied, "Access Denied"
	default:
		return pingbackFaultGeneric, "Invalid Request"
	}
}

func pingbackXML(c echo.Context, xml string) error {
	return c.Blob(http.StatusOK, "text/xml; charset=utf-8", []byte(xml))
}

// hostURL returns scheme://host of the receiving request, the prefix under
// which the blog's post permalinks live.
func hostURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
