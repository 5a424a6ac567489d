package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/psybot/psybot-api/internal/config"
	"github.com/psybot/psybot-api/internal/repository/postgres"
	"github.com/psybot/psybot-api/pkg/logger"
	redisBroker "github.com/psybot/psybot-api/pkg/messaging/redis"
	"github.com/psybot/psybot-api/pkg/metrics"
	"github.com/psybot/psybot-api/pkg/worker"
)

// Standalone outbox relay. Drains pending events from Postgres and
// publishes them to Redis, independent of the API process.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("psybot", "worker")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db, appMetrics)
	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
	}, appLogger, appMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)
	log.Info().Msg("outbox worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker...")
	cancel()
}
