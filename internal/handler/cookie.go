package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/client-portal/internal/middleware"
	"github.com/iliyamo/client-portal/internal/service"
)

// PortalPath is the URL prefix of one project's portal; the client cookie
// is confined to it.
func PortalPath(projectID string) string { return "/portal/" + projectID }

// ClientCookie builds the session cookie for projectID.  Secure is dropped
// only for local development over plain HTTP.
func ClientCookie(token, projectID string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.ClientCookieName,
		Value:    token,
		Path:     PortalPath(projectID),
		MaxAge:   int(service.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// clearedClientCookie expires the cookie on the same path it was set on.
func clearedClientCookie(projectID string, secure bool) *http.Cookie {
	ck := ClientCookie("", projectID, secure)
	ck.MaxAge = -1
	return ck
}

func setClientCookie(c echo.Context, token, projectID string, secure bool) {
	c.SetCookie(ClientCookie(token, projectID, secure))
}
