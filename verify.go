package bloghost

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// handleVerify serves GET /:blog/verify?url=… — the token issue endpoint.
// It only answers same-origin page fetches: the Referer must point back at
// this host.
func (a *App) handleVerify(c echo.Context) error {
	referer := c.Request().Referer()
	if referer == "" || !strings.HasPrefix(referer, hostURL(c)) {
		return c.String(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
	}
	token, err := a.Tokens.Generate(c.QueryParam("url"), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// botProtection checks a form submission's token and honeypot field. When
// the submission looks automated it writes a redirect to successPath — the
// exact response a real success produces — and returns true; the caller must
// then perform no write. Bots never learn they were rejected.
func (a *App) botProtection(c echo.Context, formPath, successPath string) (bool, error) {
	bot := c.FormValue("honeypot") != ""
	if !bot {
		ok, err := a.Tokens.Verify(formPath, c.FormValue("token"), time.Now())
		if err != nil {
			return false, err
		}
		bot = !ok
	}
	if bot {
		a.logger.Info("bot submission disguised as success",
			slog.String("path", formPath), slog.String("ip", c.RealIP()))
		return true, c.Redirect(http.StatusFound, successPath)
	}
	return false, nil
}
