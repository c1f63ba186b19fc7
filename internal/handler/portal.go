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

// PortalHandler serves the client-facing portal endpoints.
type PortalHandler struct {
	Portal       *service.PortalService
	SecureCookie bool
	Log          *zap.SugaredLogger
}

func NewPortalHandler(p *service.PortalService, secureCookie bool, lg *zap.SugaredLogger) *PortalHandler {
	if p == nil {
		panic("nil portal service passed to NewPortalHandler")
	}
	return &PortalHandler{Portal: p, SecureCookie: secureCookie, Log: lg}
}

// ----- DTOs -----

type authenticateReq struct {
	AccessCode string `json:"accessCode"`
}

type respondReq struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// internalError logs err and answers with a generic 500.
func (h *PortalHandler) internalError(c echo.Context, op string, err error) error {
	h.Log.Errorw("portal request failed", "op", op, "project_id", c.Param("projectId"), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// Authenticate: POST /portal/:projectId/authenticate
func (h *PortalHandler) Authenticate(c echo.Context) error {
	projectID := c.Param("projectId")
	var req authenticateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
	}
	code := req.AccessCode
	if code == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r := c.Request()
	res, err := h.Portal.Authenticate(ctx, projectID, code, service.RequestInfo{
		IPAddress: c.RealIP(),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	if err != nil {
		// Unknown projects answer like a wrong code so IDs cannot be probed.
		if errors.Is(err, service.ErrUnauthorized) || errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
		}
		return h.internalError(c, "authenticate", err)
	}

	setClientCookie(c, res.Token, projectID, h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"project": res.Project,
	})
}

// Respond: POST /portal/:projectId/respond (client session required)
func (h *PortalHandler) Respond(c echo.Context) error {
	claims, ok := middleware.ClientClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid client session"})
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := h.Portal.Respond(ctx, service.RespondRequest{
		ProjectID: c.Param("projectId"),
		Status:    req.Status,
		Note:      req.Note,
		Session:   claims,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "status": status})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "approval is disabled for this project"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid client session"})
	}
	return h.internalError(c, "respond", err)
}

// View: GET /portal/:projectId (client session required)
func (h *PortalHandler) View(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Portal.Project(ctx, c.Param("projectId"))
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}
	if err != nil {
		return h.internalError(c, "view", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "project": p})
}

// Logout: POST /portal/:projectId/logout (client session required).  The
// session row is deleted so the token stops working everywhere.
func (h *PortalHandler) Logout(c echo.Context) error {
	claims, ok := middleware.ClientClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid client session"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Portal.Sessions.Revoke(ctx, claims.SessionID); err != nil && !errors.Is(err, service.ErrNotFound) {
		return h.internalError(c, "logout", err)
	}
	c.SetCookie(clearedClientCookie(c.Param("projectId"), h.SecureCookie))
	return c.NoContent(http.StatusNoContent)
}
