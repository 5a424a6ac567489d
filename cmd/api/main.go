package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/psybot/psybot-api/internal/config"
	"github.com/psybot/psybot-api/internal/email"
	"github.com/psybot/psybot-api/internal/gemini"
	analysisHandler "github.com/psybot/psybot-api/internal/handler/analysis"
	assessmentHandler "github.com/psybot/psybot-api/internal/handler/assessment"
	"github.com/psybot/psybot-api/internal/handler/health"
	patientHandler "github.com/psybot/psybot-api/internal/handler/patient"
	"github.com/psybot/psybot-api/internal/middleware"
	"github.com/psybot/psybot-api/internal/repository/postgres"
	"github.com/psybot/psybot-api/internal/router"
	analysisService "github.com/psybot/psybot-api/internal/service/analysis"
	assessmentService "github.com/psybot/psybot-api/internal/service/assessment"
	patientService "github.com/psybot/psybot-api/internal/service/patient"
	"github.com/psybot/psybot-api/pkg/logger"
	redisBroker "github.com/psybot/psybot-api/pkg/messaging/redis"
	"github.com/psybot/psybot-api/pkg/metrics"
	"github.com/psybot/psybot-api/pkg/validator"
	"github.com/psybot/psybot-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("psybot", "api")
	validator.Register()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	patientRepo := postgres.NewPatientRepository(db, appMetrics)
	assessmentRepo := postgres.NewAssessmentRepository(db, appMetrics)
	outboxRepo := postgres.NewOutboxRepository(db, appMetrics)

	geminiClient := gemini.NewClient(cfg.Gemini)
	alertSvc := email.NewService(cfg.Alerts, appLogger)

	patientSvc := patientService.NewService(patientRepo, outboxRepo)
	assessmentSvc := assessmentService.NewService(assessmentRepo, patientRepo, outboxRepo, alertSvc, appLogger, appMetrics)
	analysisSvc := analysisService.NewService(patientRepo, assessmentRepo, geminiClient, appLogger, appMetrics)

	r := router.NewRouter(
		health.NewHandler(db),
		patientHandler.NewHandler(patientSvc),
		assessmentHandler.NewHandler(assessmentSvc),
		analysisHandler.NewHandler(analysisSvc),
		router.RouterConfig{
			RateLimit:     100,
			RateBurst:     200,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "psybot_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// The outbox relay is optional in the API process; without Redis the
	// worker binary can drain the table instead.
	if cfg.Redis.URL != "" {
		broker, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
		}, appLogger, appMetrics)
		go processor.Start(context.Background())
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
