package router // package router wires handlers and middleware onto echo

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/config"
	"github.com/iliyamo/client-portal/internal/handler"
	"github.com/iliyamo/client-portal/internal/middleware"
	"github.com/iliyamo/client-portal/internal/service"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPortal mounts the client portal.  Authenticate is open but rate
// limited; everything else requires a client session cookie for the same
// project.
func RegisterPortal(e *echo.Echo, p *handler.PortalHandler, sessions middleware.SessionValidator, rl config.RateLimitConfig, rdb *redis.Client, lg *zap.SugaredLogger) {
	g := e.Group("/portal/:projectId")
	g.POST("/authenticate", p.Authenticate, middleware.NewTokenBucket(rl, rdb, lg))

	authed := g.Group("", middleware.ClientSession(sessions, lg))
	authed.GET("", p.View)
	authed.POST("/respond", p.Respond)
	authed.POST("/logout", p.Logout)
}

// RegisterAdmin mounts session management for the admin layer.  Admin
// tokens are signed by the admin service with adminSecret and must carry
// role ADMIN.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, adminSecret string) {
	g := e.Group("/v1/admin/portal",
		middleware.AdminJWTAuth(adminSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.DELETE("/sessions/:sessionId", a.RevokeSession)
	g.POST("/sessions/purge", a.PurgeExpired)
	g.GET("/projects/:projectId/sessions", a.ListSessions)
	g.DELETE("/projects/:projectId/sessions", a.RevokeProjectSessions)
	g.GET("/projects/:projectId/history", a.History)
}

// Deps bundles everything New needs to build the full router.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Portal    *service.PortalService
	Log       *zap.SugaredLogger
}

// New builds an echo instance with every portal route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	RegisterRoutes(e)
	RegisterPortal(e, handler.NewPortalHandler(d.Portal, !d.Cfg.IsLocal(), d.Log), d.Portal.Sessions, d.RateLimit, d.Redis, d.Log)
	if d.Cfg.AdminJWTSecret != "" {
		RegisterAdmin(e, handler.NewAdminHandler(d.Portal, d.Log), d.Cfg.AdminJWTSecret)
	}
	return e
}
