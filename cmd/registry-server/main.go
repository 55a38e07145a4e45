package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("registry-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.RegistryHTTPPort),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.OpenSQLite(rootCtx, cfg.RegistrySQLitePath)
	if err != nil {
		logger.Fatal("sqlite open error", zap.Error(err))
	}
	defer sqlDB.Close()

	repo := registry.NewSQLiteRepository(sqlDB)
	if err := repo.Migrate(rootCtx); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}

	limiter := api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := api.NewRegistryRouter(registry.NewService(repo), api.RouterConfig{
		Checks:      []api.HealthCheck{{Name: "sqlite", Critical: true, Ping: repo.Ping}},
		RateLimiter: limiter,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.RegistryHTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down registry-server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("registry-server stopped with error", zap.Error(err))
	}
}
