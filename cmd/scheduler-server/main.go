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
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/notification"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/registryclient"
	"github.com/hackgods/clinic-scheduling/internal/worker"
)

var version = "dev"

type migrator interface {
	appointment.Store
	Migrate(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("scheduler-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store", cfg.StoreDriver),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  migrator
		checks []api.HealthCheck
	)

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, 10)
		cancelPg()
		if err != nil {
			logger.Fatal("postgres connection error", zap.Error(err))
		}
		defer pgPool.Close()

		store = appointment.NewPgRepository(pgPool)
		checks = append(checks, api.HealthCheck{Name: "postgres", Critical: true, Ping: pgPool.Ping})
	default:
		sqlDB, err := db.OpenSQLite(rootCtx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite open error", zap.Error(err))
		}
		defer sqlDB.Close()
		logger.Info("opened SQLite", zap.String("path", cfg.SQLitePath))

		store = appointment.NewSQLiteRepository(sqlDB)
		checks = append(checks, api.HealthCheck{Name: "sqlite", Critical: true, Ping: sqlDB.PingContext})
	}

	if err := store.Migrate(rootCtx); err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}

	var locker redisclient.Locker = redisclient.NopLocker{}
	if cfg.ScheduleLockEnabled {
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.OptionsFromConfig(cfg))
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

		locker = redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
		checks = append(checks, api.HealthCheck{
			Name: "redis",
			Ping: redisclient.Pinger(rdb),
		})
	}

	registry, err := registryclient.New(cfg.RegistryBaseURL, nil, cfg.RegistryTimeout)
	if err != nil {
		logger.Fatal("registry client error", zap.Error(err))
	}

	pool, err := worker.NewPool(rootCtx, "notify", cfg.WorkerPoolSize)
	if err != nil {
		logger.Fatal("worker pool error", zap.Error(err))
	}
	defer pool.Shutdown(cfg.ShutdownTimeout)

	var notifier notification.Sink = notification.NewFileSink(cfg.NotifyDir)
	if cfg.NotifyAsync {
		notifier = notification.NewAsyncSink(notifier, pool)
	}

	svc := appointment.NewService(store, registry, notifier, locker, cfg)

	limiter := api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := api.NewSchedulerRouter(svc, api.RouterConfig{
		Checks:      checks,
		RateLimiter: limiter,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
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
		logger.Info("shutting down scheduler-server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("scheduler-server stopped with error", zap.Error(err))
	}
}
