package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casetransfer/internal/casetransfer/dispatch"
	"casetransfer/internal/casetransfer/metrics"
	"casetransfer/internal/casetransfer/offices"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/internal/casetransfer/service"
	"casetransfer/internal/casetransfer/store"
	jwttoken "casetransfer/internal/jwt_token"
	"casetransfer/internal/platform/config"
	"casetransfer/internal/platform/httpserver"
	"casetransfer/internal/platform/kafka"
	"casetransfer/internal/platform/logger"
	platformmetrics "casetransfer/internal/platform/metrics"
	"casetransfer/internal/platform/postgres"
	"casetransfer/internal/platform/redis"
	audit "casetransfer/pkg/platform/audit"
	"casetransfer/pkg/platform/circuit"
	auditmemory "casetransfer/pkg/platform/audit/store/memory"
	auditpostgres "casetransfer/pkg/platform/audit/store/postgres"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise case transfer", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := httpserver.New(cfg.Addr, newRouter(app), cfg.RequestTimeout)

	go func() {
		log.Info("starting case transfer service",
			"addr", cfg.Addr,
			"dispatch_backend", cfg.Dispatch.Backend,
			"persistent_store", cfg.Database.URL != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// build connects the backing stores and dispatcher selected by cfg. The
// returned cleanup closes whatever was opened.
func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*application, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	directory := offices.Default()
	if cfg.OfficesFile != "" {
		d, err := offices.LoadFile(cfg.OfficesFile)
		if err != nil {
			return fail(fmt.Errorf("load offices: %w", err))
		}
		directory = d
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fail(err)
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}
	cases, auditStore, err := stores(ctx, db)
	if err != nil {
		return fail(err)
	}

	events, breaker, closeEvents, err := dispatcher(ctx, cfg, log)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeEvents)
	var breakers []*circuit.Breaker
	if breaker != nil {
		breakers = append(breakers, breaker)
	}

	svc, err := service.New(cases, events, directory,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditStore)),
		service.WithMetrics(metrics.New()),
		service.WithDispatchConcurrency(cfg.Dispatch.Concurrency),
		service.WithDispatchTimeout(cfg.Dispatch.Timeout),
	)
	if err != nil {
		return fail(err)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	return &application{
		service:        svc,
		logger:         log,
		tokens:         jwttoken.NewJWTServiceAdapter(tokens),
		httpMetrics:    platformmetrics.New(),
		metricsHandler: promhttp.Handler(),
		requestTimeout: cfg.RequestTimeout,
		breakers:       breakers,
	}, cleanup, nil
}

func stores(ctx context.Context, db *sql.DB) (ports.CaseRepository, audit.Store, error) {
	if db == nil {
		return store.NewInMemoryStore(), auditmemory.NewInMemoryStore(), nil
	}
	cases := store.NewPostgres(db)
	if err := cases.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate case store: %w", err)
	}
	return cases, auditpostgres.New(db), nil
}

// dispatcher returns the configured backend. Broker backends are wrapped in a
// circuit breaker, which is returned for health reporting.
func dispatcher(ctx context.Context, cfg config.Server, log *slog.Logger) (ports.EventDispatcher, *circuit.Breaker, func(), error) {
	switch cfg.Dispatch.Backend {
	case config.BackendKafka:
		client, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := dispatch.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		events, breaker := guard(dispatch.NewKafka(client, cfg.Kafka.Topic), "kafka", cfg, log)
		return events, breaker, client.Close, nil
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		d := dispatch.NewRedis(client.Client, cfg.Redis.Stream, dispatch.WithMaxLen(cfg.Redis.StreamMaxLen))
		events, breaker := guard(d, "redis", cfg, log)
		return events, breaker, func() { _ = client.Close() }, nil
	default:
		log.Warn("dispatch backend is in-memory; commands are logged, not delivered")
		return dispatch.NewRecorder(log), nil, func() {}, nil
	}
}

func guard(next ports.EventDispatcher, name string, cfg config.Server, log *slog.Logger) (ports.EventDispatcher, *circuit.Breaker) {
	breaker := dispatch.NewBreaker(name, cfg.Dispatch.BreakerThreshold, cfg.Dispatch.BreakerCooldown)
	return dispatch.NewGuarded(next, breaker, log), breaker
}
