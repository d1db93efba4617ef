package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/pos-admin/internal/app"
	"github.com/noah-isme/pos-admin/internal/config"
	"github.com/noah-isme/pos-admin/internal/events"
	"github.com/noah-isme/pos-admin/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("pos", nil)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal().Msg("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpt, err := app.TaskRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	writer := events.NewKafkaWriter(cfg.KafkaBrokers)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error().Err(err).Msg("close kafka writer")
		}
	}()

	publisher := events.Publisher{Writer: writer, TopicPrefix: cfg.EventsTopicPrefix, Logger: logger}
	mux := asynq.NewServeMux()
	publisher.Register(mux)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{events.QueueName: 1},
		Logger:      app.AsynqLogger{Logger: logger},
	})
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("worker starting")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
