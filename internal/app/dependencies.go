package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/integration/cms"
	"github.com/vladislavdragonenkov/loms/internal/integration/ros"
	"github.com/vladislavdragonenkov/loms/internal/integration/wms"
	"github.com/vladislavdragonenkov/loms/internal/storage/memory"
	"github.com/vladislavdragonenkov/loms/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Working domain.WorkingStore
	Durable domain.DurableStore
	Stock   domain.StockRepository
	Queue   domain.OutboxQueue
	Idem    domain.IdempotencyRepository
	Bus     *bus.Bus

	CMS domain.CMSService
	WMS domain.WMSService
	ROS domain.ROSService

	// Postgres не nil, когда настроено долговременное хранилище.
	Postgres *postgres.Store

	Logger *log.Entry
}

// NewDependencies собирает зависимости по конфигурации. Пустой базовый
// URL внешней системы включает mock-клиент; пустой DSN оставляет
// документное хранилище в памяти.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Working: memory.NewWorkingStore(),
		Queue:   memory.NewOutboxQueue(),
		Idem:    memory.NewIdempotencyRepository(),
		Bus:     bus.New(logger.WithField("component", "event-bus")),
		Logger:  logger,
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, err
		}
		deps.Postgres = store
		deps.Durable = postgres.NewDocumentStore(store)
		deps.Stock = postgres.NewStockRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		deps.Durable = memory.NewDocumentStore()
		deps.Stock = memory.NewStockRepository()
		logger.Info("using in-memory storage")
	}

	if cfg.CMSBaseURL != "" {
		deps.CMS = cms.NewClient(cfg.CMSBaseURL, cfg.IntegrationTimeout, logger.WithField("component", "cms-client"))
	} else {
		deps.CMS = cms.NewMockService()
		logger.Warn("CMS base url is empty, using mock client")
	}

	if cfg.WMSBaseURL != "" {
		deps.WMS = wms.NewClient(cfg.WMSBaseURL, cfg.IntegrationTimeout, logger.WithField("component", "wms-client"))
	} else {
		deps.WMS = wms.NewMockService()
		logger.Warn("WMS base url is empty, using mock client")
	}

	if cfg.ROSBaseURL != "" {
		deps.ROS = ros.NewClient(cfg.ROSBaseURL, cfg.IntegrationTimeout, logger.WithField("component", "ros-client"))
	} else {
		deps.ROS = ros.NewMockService()
		logger.Warn("ROS base url is empty, using mock client")
	}

	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
