// Package driver реализует действия водителя над посылками:
// подтверждение доставки и фиксацию провала.
package driver

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// Service обрабатывает терминальные переходы посылок. Заказ-владелец
// ищется сканом по working store; мутация выполняется под блокировкой
// хранилища, чтобы конкурентные действия водителей не теряли записи.
type Service struct {
	working domain.WorkingStore
	durable domain.DurableStore
	bus     domain.EventPublisher
	logger  *log.Entry
}

// NewService создаёт сервис действий водителя.
func NewService(working domain.WorkingStore, durable domain.DurableStore, bus domain.EventPublisher, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "driver-actions")
	}
	return &Service{
		working: working,
		durable: durable,
		bus:     bus,
		logger:  logger,
	}
}

// Deliver переводит посылку в DELIVERED с подтверждением. Если после
// перехода доставлены все посылки заказа, заказ становится DELIVERED.
func (s *Service) Deliver(ctx context.Context, packageID string, proof domain.DeliveryProof) (domain.Order, error) {
	return s.transition(ctx, packageID, func(p *domain.Package, now time.Time) error {
		return p.MarkDelivered(proof, now)
	})
}

// Fail переводит посылку в FAILED с обязательной причиной. Провал хотя
// бы одной посылки делает заказ FAILED; статус «липкий» и последующими
// доставками не снимается.
func (s *Service) Fail(ctx context.Context, packageID, reason string) (domain.Order, error) {
	return s.transition(ctx, packageID, func(p *domain.Package, now time.Time) error {
		return p.MarkFailed(reason, now)
	})
}

func (s *Service) transition(ctx context.Context, packageID string, mutate func(*domain.Package, time.Time) error) (domain.Order, error) {
	now := time.Now().UTC()
	var changed domain.Package

	order, err := s.working.UpdateOrderByPackage(packageID, func(order *domain.Order) error {
		idx := order.FindPackage(packageID)
		if idx < 0 {
			return domain.ErrPackageNotFound
		}
		if err := mutate(&order.Packages[idx], now); err != nil {
			return err
		}
		changed = order.Packages[idx]
		order.Recalculate(now)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	// Порядок фиксирован: сначала событие посылки, затем заказа.
	s.bus.Publish(domain.PackageUpdated{OrderID: order.ID, Package: changed})
	s.bus.Publish(domain.OrderUpdated{Order: order.Clone()})

	// Write-through best-effort: ошибка записи не откатывает мутацию.
	if err := s.durable.UpsertOrder(ctx, order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"package_id": packageID,
		}).Warn("durable order write failed")
	}

	return order, nil
}
