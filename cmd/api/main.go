package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/dao-advisor/internal/application"
	"github.com/bryanwahyu/dao-advisor/internal/application/analysis"
	"github.com/bryanwahyu/dao-advisor/internal/config"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/provider"
	mysqlp "github.com/bryanwahyu/dao-advisor/internal/infra/db/mysql"
	"github.com/bryanwahyu/dao-advisor/internal/infra/db/postgres"
	"github.com/bryanwahyu/dao-advisor/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/dao-advisor/internal/infra/storage"
	"github.com/bryanwahyu/dao-advisor/internal/logger"
	"github.com/bryanwahyu/dao-advisor/internal/middleware"
)

func main() {
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server stopped with error", nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	client, err := provider.New(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("ai provider: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	svc := &analysis.Service{
		Client:  client,
		Metrics: metrics,
		Clock:   application.SystemClock{},
		Timeout: cfg.AI.Timeout,
		Logger:  log.With(logger.Fields{"component": "analysis"}),
	}
	checkers := map[string]middleware.HealthChecker{}

	// audit log
	if cfg.Database.Driver != "" {
		db, err := connectDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		if cfg.Database.Driver == config.DriverPostgres {
			svc.Audit = postgres.NewAuditRepository(db)
		} else {
			svc.Audit = mysqlp.NewAuditRepository(db)
		}
	}

	// raw output archive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Archive = store
		checkers["minio"] = middleware.CheckerFunc(store.Ping)
	}

	opts := httpserver.Options{
		Service:        svc,
		Logger:         log,
		Metrics:        metrics,
		RateWindow:     cfg.RateLimit.Window,
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Checkers:       checkers,
	}
	if cfg.RateLimit.Enabled {
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			checkers["redis"] = &middleware.RedisHealthChecker{Client: rdb}
			opts.Limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		} else {
			opts.Limiter = middleware.NewMemoryLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpserver.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", logger.Fields{
			"addr":     srv.Addr,
			"provider": client.Provider(),
			"model":    client.Model(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, nil
	}
}
