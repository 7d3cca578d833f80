// Package app собирает сервис из компонентов и управляет его жизненным циклом.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/loms/internal/health"
	"github.com/vladislavdragonenkov/loms/internal/jobs"
	"github.com/vladislavdragonenkov/loms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/loms/internal/service/driver"
	"github.com/vladislavdragonenkov/loms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/loms/internal/service/orchestrator"
	"github.com/vladislavdragonenkov/loms/internal/service/outbox"
	transport "github.com/vladislavdragonenkov/loms/internal/transport/http"
	"github.com/vladislavdragonenkov/loms/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает сервис и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	orders := orchestrator.New(orchestrator.Deps{
		Working: deps.Working,
		Durable: deps.Durable,
		Stock:   deps.Stock,
		Outbox:  deps.Queue,
		Idem:    deps.Idem,
		Bus:     deps.Bus,
		CMS:     deps.CMS,
		WMS:     deps.WMS,
		ROS:     deps.ROS,
	}, logger.WithField("component", "orchestrator"))

	drivers := driver.NewService(deps.Working, deps.Durable, deps.Bus,
		logger.WithField("component", "driver-actions"))

	drainer := outbox.NewDrainer(
		deps.Queue, deps.Working, deps.Durable, deps.Bus,
		deps.CMS, deps.WMS, deps.ROS,
		outbox.WithLogger(logger.WithField("component", "outbox-drainer")),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
	)

	// Ретрансляция событий в Kafka (опционально).
	kafkaProducer := initKafkaProducer(cfg.KafkaBrokers, logger)
	if kafkaProducer != nil {
		relay := kafka.NewRelay(kafkaProducer, logger.WithField("component", "kafka-relay"))
		relay.Attach(deps.Bus)
		defer relay.Detach()
	}
	defer closeKafka(kafkaProducer, logger)

	// Фоновые задачи.
	drainJob := jobs.NewOutboxDrainJob(drainer, cfg.DrainSchedule,
		logger.WithField("component", "outbox-drain-job"))
	if err := drainJob.Start(); err != nil {
		return err
	}
	defer drainJob.Stop()

	cleanupWorker := idempotency.NewCleanupWorker(
		deps.Idem,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
	)
	go cleanupWorker.Run(ctx)

	// Служебный сервер: метрики и health probes.
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxChecker(deps.Queue))
	if deps.Postgres != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewPingChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Postgres.Ping(pingCtx)
		}))
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Внешний API.
	server := transport.NewServer(orders, drivers, drainer, deps.Queue, deps.Bus,
		logger.WithField("component", "http-server"))
	router := transport.NewRouter(server, transport.RouterConfig{
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Logger:    logger.WithField("component", "http-router"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		errCh <- router.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := router.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http server shutdown with error")
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP-сервер: /metrics для
// Prometheus и health probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
