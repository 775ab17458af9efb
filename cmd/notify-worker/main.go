package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medops/ot-scheduling/internal/config"
	"github.com/medops/ot-scheduling/internal/db"
	"github.com/medops/ot-scheduling/internal/logging"
	"github.com/medops/ot-scheduling/internal/notify"
)

const drainBatch = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("notify-worker", "dev")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New("notify-worker", cfg.Env)
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("notify-worker starting up")

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

	outbox := notify.NewOutbox(pgPool, log)
	sender := notify.LogSender{Log: log}

	// Run once at startup
	runOnce(rootCtx, log, outbox, sender, cfg.NotifyMaxTries)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping notify worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, log, outbox, sender, cfg.NotifyMaxTries)
		}
	}
}

func runOnce(ctx context.Context, log zerolog.Logger, outbox *notify.Outbox, sender notify.Sender, maxTries int) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := outbox.DrainOnce(runCtx, sender, drainBatch, maxTries)
	if err != nil {
		log.Error().Err(err).Msg("drain run error")
		return
	}
	log.Info().Int("sent", sent).Dur("took", time.Since(start)).Msg("drain run complete")
}
