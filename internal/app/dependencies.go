// Package app builds the long-lived clients shared by the API and the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/config"
	"github.com/noah-isme/pos-admin/internal/events"
	"github.com/noah-isme/pos-admin/internal/ratelimit"
	"github.com/noah-isme/pos-admin/internal/resilience"
)

// Dependencies enumerates the clients shared across modules.
type Dependencies struct {
	Config          *config.Config
	Logger          zerolog.Logger
	Redis           *redis.Client
	Backend         *backend.Client
	Validator       *validator.Validate
	Limiter         *limiter.Limiter
	TaskClient      *asynq.Client
	Events          *events.Bus
	MetricsRegistry prometheus.Registerer
	TracerProvider  trace.TracerProvider
	MeterProvider   metric.MeterProvider
}

// Options toggles optional instrumentation.
type Options struct {
	RedisMetrics bool
}

// New connects Redis, the backend client, the task queue and the limiter.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	rdb, err := NewRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{
		Config:          cfg,
		Logger:          logger,
		Redis:           rdb,
		Validator:       common.Validator(),
		MetricsRegistry: prometheus.DefaultRegisterer,
		TracerProvider:  otel.GetTracerProvider(),
		MeterProvider:   otel.GetMeterProvider(),
	}

	deps.Backend, err = backend.NewClient(backend.Config{
		BaseURL: cfg.BackendBaseURL,
		Breaker: resilience.NewBreaker(10, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
			WithTarget("backend").
			WithLogger(logger),
		Timeout:     cfg.BackendTimeout,
		ReadRetries: cfg.BackendReadRetries,
		Logger:      logger,
		Meter:       Meter("pos-admin/backend"),
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	deps.Limiter, err = ratelimit.New(rdb, "ratelimit", cfg.RateLimit)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	connOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("parse task queue redis url: %w", err)
	}
	deps.TaskClient = asynq.NewClient(connOpt)
	deps.Events = &events.Bus{
		Queue:    deps.TaskClient,
		Producer: cfg.ServiceName,
		Logger:   logger.With().Str("component", "events").Logger(),
	}
	return deps, nil
}

// NewRedis opens an instrumented Redis client and checks it answers.
func NewRedis(ctx context.Context, url string, withMetrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// TaskRedisOpt returns the asynq connection options for the configured Redis.
func TaskRedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	return asynq.ParseRedisURI(cfg.RedisURL)
}

// PingRedis implements health.Checker.
func (d *Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d == nil || d.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// PingBackend implements health.Checker.
func (d *Dependencies) PingBackend(ctx context.Context, timeout time.Duration) error {
	if d == nil || d.Backend == nil {
		return errors.New("backend not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Backend.Ping(ctx)
}

// Close releases the task client and Redis.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.TaskClient != nil {
		errs = append(errs, d.TaskClient.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

// Tracer returns the default OpenTelemetry tracer for instrumentation hooks.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Meter returns the default OpenTelemetry meter for instrumentation hooks.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
