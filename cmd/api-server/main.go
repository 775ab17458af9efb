package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/medops/ot-scheduling/internal/api"
	"github.com/medops/ot-scheduling/internal/config"
	"github.com/medops/ot-scheduling/internal/db"
	"github.com/medops/ot-scheduling/internal/logging"
	"github.com/medops/ot-scheduling/internal/notify"
	redisclient "github.com/medops/ot-scheduling/internal/redis"
	"github.com/medops/ot-scheduling/internal/report"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/schedule"
	"github.com/medops/ot-scheduling/internal/surgery"

	goredis "github.com/redis/go-redis/v9"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("api-server", "dev")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New("api-server", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	var rdb *goredis.Client
	var locker schedule.Locker
	if cfg.LockBackend == "redis" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		log.Info().Msg("connected to Redis")
		locker = redisclient.NewResourceLocker(rdb, cfg.LockTTL)
	} else {
		log.Info().Msg("using in-process locks, single node only")
		locker = schedule.NewLocalLocker()
	}

	emitter := notify.NewOutbox(pgPool, log)

	directory := resource.NewDirectory(resource.NewPgRepository(pgPool), log)
	assigner := schedule.NewAssigner(directory, schedule.NewPgRepository(pgPool), locker, emitter, log)
	requests := surgery.NewPgRepository(pgPool)
	svc := surgery.NewService(requests, assigner, emitter, log)
	reports := report.NewService(requests, resource.NewPgRepository(pgPool))

	router := api.NewRouter(api.RouterConfig{
		Surgery:   svc,
		Directory: directory,
		Assigner:  assigner,
		Report:    reports,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
