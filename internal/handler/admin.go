package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/middleware"
	"github.com/iliyamo/client-portal/internal/service"
)

// AdminHandler exposes session revocation and history to the admin layer.
type AdminHandler struct {
	Portal *service.PortalService
	Log    *zap.SugaredLogger
}

func NewAdminHandler(p *service.PortalService, lg *zap.SugaredLogger) *AdminHandler {
	if p == nil {
		panic("nil portal service passed to NewAdminHandler")
	}
	return &AdminHandler{Portal: p, Log: lg}
}

func (h *AdminHandler) internalError(c echo.Context, op string, err error) error {
	h.Log.Errorw("admin portal request failed", "op", op, "admin_id", c.Get(middleware.CtxAdminID), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// RevokeSession: DELETE /v1/admin/portal/sessions/:sessionId
func (h *AdminHandler) RevokeSession(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Portal.Sessions.Revoke(ctx, c.Param("sessionId"))
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	if err != nil {
		return h.internalError(c, "revoke_session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeProjectSessions: DELETE /v1/admin/portal/projects/:projectId/sessions
func (h *AdminHandler) RevokeProjectSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Portal.Sessions.RevokeProject(ctx, c.Param("projectId"))
	if err != nil {
		return h.internalError(c, "revoke_project_sessions", err)
	}
	h.Log.Infow("revoked project sessions", "project_id", c.Param("projectId"), "count", n)
	return c.NoContent(http.StatusNoContent)
}

// ListSessions: GET /v1/admin/portal/projects/:projectId/sessions
func (h *AdminHandler) ListSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Portal.Sessions.LiveSessions(ctx, c.Param("projectId"))
	if err != nil {
		return h.internalError(c, "list_sessions", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": list})
}

// History: GET /v1/admin/portal/projects/:projectId/history
func (h *AdminHandler) History(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hist, err := h.Portal.History(ctx, c.Param("projectId"))
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}
	if err != nil {
		return h.internalError(c, "history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"statusHistory": hist})
}

// PurgeExpired: POST /v1/admin/portal/sessions/purge
func (h *AdminHandler) PurgeExpired(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	n, err := h.Portal.Sessions.PurgeExpired(ctx)
	if err != nil {
		return h.internalError(c, "purge_sessions", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purged": n})
}
