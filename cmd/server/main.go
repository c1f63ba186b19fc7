package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/config"
	"github.com/iliyamo/client-portal/internal/database"
	"github.com/iliyamo/client-portal/internal/logger"
	"github.com/iliyamo/client-portal/internal/queue"
	"github.com/iliyamo/client-portal/internal/repository"
	"github.com/iliyamo/client-portal/internal/router"
	"github.com/iliyamo/client-portal/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		Driver:     cfg.DBDriver,
		User:       cfg.DBUser,
		Pass:       cfg.DBPass,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.DBDriver, "error", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		lg.Fatalw("migrate failed", "error", err)
	}

	rlCfg := config.LoadRateLimitConfig()
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		lg.Warnw("redis unavailable; authenticate rate limiting disabled", "error", err)
	}

	var analytics service.Analytics
	if cfg.AnalyticsEnabled {
		analytics = queue.NewPublisher(cfg.RabbitURL, cfg.AnalyticsQueue)
	}
	if cfg.AnalyticsConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.AnalyticsQueue, lg)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Errorw("analytics consumer stopped", "error", err)
			}
		}()
	}

	projects := repository.NewProjectRepo(db)
	sessions := service.NewSessionService([]byte(cfg.PortalJWTSecret), repository.NewSessionRepo(db))
	portal := service.NewPortalService(projects, sessions, analytics, lg)

	e := router.New(router.Deps{
		Cfg:       cfg,
		RateLimit: rlCfg,
		Redis:     rdb,
		Portal:    portal,
		Log:       lg,
	})
	e.Use(echomw.RequestID(), echomw.Recover(), requestLogger(lg))
	if cfg.AdminJWTSecret == "" {
		lg.Infow("ADMIN_JWT_SECRET not set; admin portal routes disabled")
	}

	addr := ":" + cfg.Port
	lg.Infow("listening", "addr", addr, "env", cfg.Env, "db", cfg.DBDriver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("shutdown failed", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

func requestLogger(lg *zap.SugaredLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			lg.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			)
			return nil
		},
	})
}
