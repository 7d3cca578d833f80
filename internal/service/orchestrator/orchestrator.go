// Package orchestrator реализует конвейер создания заказа:
// валидация → резерв остатков → регистрация в CMS → регистрация в WMS →
// построение маршрута, с уводом упавших шагов в outbox.
package orchestrator

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/ident"
	"github.com/vladislavdragonenkov/loms/internal/metrics"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Имена шагов для метрик и логов.
const (
	StepStockReserve = "stock_reserve"
	StepCMSRegister  = "cms_register"
	StepWMSRegister  = "wms_register"
	StepROSPlan      = "ros_plan"
)

// Deps — зависимости оркестратора; все внедряются через конструктор,
// глобального состояния нет, поэтому тесты собирают изолированные экземпляры.
type Deps struct {
	Working domain.WorkingStore
	Durable domain.DurableStore
	Stock   domain.StockRepository
	Outbox  domain.OutboxQueue
	Idem    domain.IdempotencyRepository
	Bus     domain.EventPublisher
	CMS     domain.CMSService
	WMS     domain.WMSService
	ROS     domain.ROSService
}

// Orchestrator управляет конвейером создания заказа.
//
// Центральное решение конвейера: создание заказа отвязано от
// доступности трёх внешних систем. Провал CMS/WMS/ROS не проваливает
// запрос — шаг уходит в outbox, ответ остаётся успешным, а клиент
// наблюдает прогресс через события или поллинг.
type Orchestrator struct {
	deps    Deps
	logger  *log.Entry
	metrics *metrics.PipelineMetrics
	idemTTL time.Duration
}

// New создаёт рабочий экземпляр оркестратора.
func New(deps Deps, logger *log.Entry) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "orchestrator")
	}
	return &Orchestrator{
		deps:    deps,
		logger:  logger,
		metrics: metrics.NewPipelineMetrics(),
		idemTTL: defaultIdempotencyTTL,
	}
}

// NewWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewWithoutMetrics(deps Deps, logger *log.Entry) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "orchestrator")
	}
	return &Orchestrator{
		deps:    deps,
		logger:  logger,
		idemTTL: defaultIdempotencyTTL,
	}
}

// CreateOrder выполняет конвейер создания заказа. Ошибкой завершаются
// только валидация, дубликат idempotency-key и нехватка остатков; всё,
// что дальше резерва, запрос провалить не может.
func (o *Orchestrator) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResult, error) {
	start := time.Now()
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordPipelineDuration(time.Since(start))
		}
	}()

	if err := req.Validate(); err != nil {
		if o.metrics != nil {
			o.metrics.RecordOrderRejected()
		}
		return CreateOrderResult{}, err
	}

	orderID := ident.Order()

	if req.IdempotencyKey != "" {
		if err := o.deps.Idem.Register(req.IdempotencyKey, orderID, time.Now().UTC().Add(o.idemTTL)); err != nil {
			if o.metrics != nil {
				o.metrics.RecordOrderRejected()
			}
			return CreateOrderResult{}, err
		}
	}

	// Резерв остатков: либо списаны все позиции заявки, либо ни одна.
	// Списание намеренно не откатывается при провале последующих шагов —
	// это смоделированное ограничение исходного дизайна.
	if lines := req.stockLines(); len(lines) > 0 {
		stepStart := time.Now()
		err := o.deps.Stock.Reserve(ctx, lines)
		if o.metrics != nil {
			o.metrics.RecordStepDuration(StepStockReserve, time.Since(stepStart))
		}
		if err != nil {
			// Ключ освобождается: провал резерва — валидационный отказ,
			// и легитимный повтор с тем же ключом должен пройти.
			if req.IdempotencyKey != "" {
				o.deps.Idem.Delete(req.IdempotencyKey)
			}
			if o.metrics != nil {
				o.metrics.RecordOrderRejected()
			}
			return CreateOrderResult{}, stockValidationError(err)
		}
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        orderID,
		ClientID:  req.ClientID,
		DriverID:  req.DriverID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range req.Packages {
		order.Packages = append(order.Packages, domain.Package{
			ID:          ident.Package(),
			Description: p.Description,
			Address:     p.Address,
			StockItemID: p.StockItemID,
			Quantity:    p.Quantity,
			Status:      domain.PackageStatusWaiting,
		})
	}

	if o.metrics != nil {
		o.metrics.RecordOrderCreated()
	}

	o.deps.Working.PutOrder(order)
	o.publish(domain.OrderUpdated{Order: order.Clone()})

	o.stepCMS(ctx, &order)
	o.stepWMS(ctx, &order)

	o.deps.Working.PutOrder(order)
	o.publish(domain.OrderUpdated{Order: order.Clone()})

	o.stepROS(ctx, &order)

	o.persistDurable(ctx, order)

	return CreateOrderResult{
		OrderID: order.ID,
		Status:  order.Status,
		RouteID: order.RouteID,
	}, nil
}

// stepCMS регистрирует заказ в CMS; провал уходит в outbox и не
// прерывает конвейер.
func (o *Orchestrator) stepCMS(ctx context.Context, order *domain.Order) {
	stepStart := time.Now()
	cmsOrderID, err := o.deps.CMS.RegisterOrder(ctx, order.ClientID, order.ID)
	if o.metrics != nil {
		o.metrics.RecordStepDuration(StepCMSRegister, time.Since(stepStart))
	}
	if err != nil {
		o.deferStep(domain.OutboxKindCMSRegister, order.ID, StepCMSRegister, err)
		return
	}
	order.CMSOrderID = cmsOrderID
}

// stepWMS регистрирует посылки в WMS. Успешный ответ замещает локальный
// список посылок каноническим и переводит заказ в IN_WMS; провал
// оставляет посылки и статус без изменений.
func (o *Orchestrator) stepWMS(ctx context.Context, order *domain.Order) {
	stepStart := time.Now()
	canonical, err := o.deps.WMS.RegisterPackages(ctx, order.Packages)
	if o.metrics != nil {
		o.metrics.RecordStepDuration(StepWMSRegister, time.Since(stepStart))
	}
	if err != nil {
		o.deferStep(domain.OutboxKindWMSRegister, order.ID, StepWMSRegister, err)
		return
	}

	order.Packages = canonical
	if err := order.Advance(domain.OrderStatusInWMS, time.Now().UTC()); err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Warn("cannot advance order to IN_WMS")
	}
}

// stepROS строит маршрут. Успех даёт три события в фиксированном
// порядке: ORDER_UPDATED, ROUTE_UPDATED, ROUTE_ASSIGNED.
func (o *Orchestrator) stepROS(ctx context.Context, order *domain.Order) {
	stepStart := time.Now()
	route, err := o.deps.ROS.PlanRoute(ctx, order.Packages, order.DriverID)
	if o.metrics != nil {
		o.metrics.RecordStepDuration(StepROSPlan, time.Since(stepStart))
	}
	if err != nil {
		o.deferStep(domain.OutboxKindROSPlan, order.ID, StepROSPlan, err)
		return
	}

	now := time.Now().UTC()
	if route.ID == "" {
		route.ID = ident.Route()
	}
	route.Status = domain.RouteStatusAssigned
	route.CreatedAt = now
	route.UpdatedAt = now

	order.RouteID = route.ID
	if err := order.Advance(domain.OrderStatusRouted, now); err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Warn("cannot advance order to ROUTED")
	}

	o.deps.Working.PutRoute(route)
	o.deps.Working.PutOrder(*order)

	o.publish(domain.OrderUpdated{Order: order.Clone()})
	o.publish(domain.RouteUpdated{OrderID: order.ID, Route: route.Clone()})
	o.publish(domain.RouteAssigned{RouteID: route.ID, DriverID: route.DriverID})

	if err := o.deps.Durable.UpsertRoute(ctx, route); err != nil {
		o.logger.WithError(err).WithField("route_id", route.ID).Warn("durable route write failed")
	}
}

// deferStep переводит упавший интеграционный шаг в outbox.
// Дедупликации нет: повторный провал того же шага даёт новую задачу.
func (o *Orchestrator) deferStep(kind domain.OutboxKind, orderID, step string, cause error) {
	o.logger.WithError(cause).WithFields(log.Fields{
		"order_id": orderID,
		"step":     step,
	}).Warn("integration step failed, deferring to outbox")

	o.deps.Outbox.Enqueue(domain.OutboxTask{
		Kind:       kind,
		OrderID:    orderID,
		EnqueuedAt: time.Now().UTC(),
	})

	if o.metrics != nil {
		o.metrics.RecordStepFailure(step)
		o.metrics.RecordOutboxEnqueued(string(kind))
	}
}

// persistDurable выполняет best-effort запись в долговременное
// хранилище: ошибка логируется, но не проваливает запрос — до
// следующей успешной записи источником истины служит working store.
func (o *Orchestrator) persistDurable(ctx context.Context, order domain.Order) {
	if err := o.deps.Durable.UpsertOrder(ctx, order); err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Warn("durable order write failed")
	}
}

func (o *Orchestrator) publish(event domain.Event) {
	o.deps.Bus.Publish(event)
	if o.metrics != nil {
		o.metrics.RecordEventPublished(string(event.Kind()))
	}
}

// stockValidationError переводит ошибку резервирования в валидационную:
// нехватка остатков — вина клиента, запрос отклоняется без списаний.
func stockValidationError(err error) error {
	ve := &domain.ValidationError{}
	switch {
	case errors.Is(err, domain.ErrStockItemNotFound):
		ve.Add("packages", "referenced stock item does not exist")
	case errors.Is(err, domain.ErrInsufficientStock):
		ve.Add("packages", "insufficient stock for requested quantity")
	default:
		return err
	}
	return ve
}

// GetOrder читает заказ: сперва working store, затем долговременное
// хранилище с прогревом кэша.
func (o *Orchestrator) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if order, ok := o.deps.Working.GetOrder(id); ok {
		return order, nil
	}

	order, err := o.deps.Durable.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.deps.Working.PutOrder(order)
	return order, nil
}

// ListOrders возвращает заказы по фильтру. Фильтрованный путь идёт в
// долговременное хранилище и прогревает кэш; без фильтра отдаётся
// процессный снимок working store.
func (o *Orchestrator) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Empty() {
		return o.deps.Working.ListOrders(), nil
	}

	orders, err := o.deps.Durable.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		o.deps.Working.PutOrder(order)
	}
	return orders, nil
}
