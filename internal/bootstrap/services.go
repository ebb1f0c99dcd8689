package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/clinova/platform/internal/data"
)

// Run wires the full gateway process and blocks until a shutdown signal
// arrives or a component fails.
func Run() error {
	logger := InitLogger()

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	db, err := ConnectDB(dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("close database", "error", closeErr)
		}
	}()

	if cfg.Postgres.RunMigrationsOnStart {
		if err = RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	redisClient, err := ConnectRedis(dbCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logger.Error("close redis client", "error", closeErr)
		}
	}()

	authSvc := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		Production:  cfg.IsProduction(),
		RedisClient: redisClient,
		Logger:      logger,
	})
	if authSvc == nil {
		logger.Warn("running without login flow; existing sessions are still honored")
	}

	identitySvc := BuildIdentityService(db, redisClient, logger)
	limiter, memLimiter := BuildRateLimiter(cfg.RateLimit, redisClient, logger)

	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:   &cfg,
		Auth:     authSvc,
		Identity: identitySvc,
		Profiles: data.NewProfileRepo(db),
		Limiter:  limiter,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if memLimiter != nil {
		g.Go(func() error {
			return memLimiter.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(context.Background(), server, logger)
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
