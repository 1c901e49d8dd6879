package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "lendcore/internal/adapter/http"
	"lendcore/internal/adapter/middleware"
	"lendcore/internal/app"
	"lendcore/internal/config"
	"lendcore/internal/infrastructure/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	if cfg.OperatorJWTSecret == "" {
		logger.Warn("OPERATOR_JWT_SECRET unset, operator routes will reject every token")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.RequestID(), echomw.Logger(), echomw.Recover())

	httpadp.Register(e, httpadp.Routes{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: a.PingDB},
			httpadp.Check{Name: "redis", Ping: a.PingRedis},
		),
		Facilities:  httpadp.NewFacilityHandler(a.Facilities, logger.Named("http")),
		Ops:         httpadp.NewOpsHandler(a.Facilities, a.Jobs, logger.Named("http")),
		Tenant:      middleware.Tenant(),
		Idempotency: middleware.Idempotency(a.Redis, cfg.IdempTTL(), logger.Named("idempotency")),
		Operator:    middleware.OperatorAuth([]byte(cfg.OperatorJWTSecret)),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
