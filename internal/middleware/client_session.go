package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/service"
	"github.com/iliyamo/client-portal/internal/utils"
)

// ClientCookieName is the cookie carrying the client portal token.
const ClientCookieName = "client-session"

// SessionValidator checks a client token against signature and store.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (utils.ClientClaims, error)
}

// ClientSession requires a live client session for the :projectId in the
// path.  The cookie path already confines the browser, but a token lifted
// from one project is still rejected here on another project's routes.
func ClientSession(v SessionValidator, lg *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(ClientCookieName)
			if err != nil || ck.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing client session"})
			}
			claims, err := v.Validate(c.Request().Context(), ck.Value)
			if err != nil {
				if errors.Is(err, service.ErrInternal) {
					lg.Errorw("client session lookup failed", "error", err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid client session"})
			}
			if claims.ProjectID != c.Param("projectId") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid client session"})
			}
			c.Set(CtxClientSession, claims)
			return next(c)
		}
	}
}

// ClientClaims returns the claims stored by ClientSession.
func ClientClaims(c echo.Context) (utils.ClientClaims, bool) {
	claims, ok := c.Get(CtxClientSession).(utils.ClientClaims)
	return claims, ok
}
