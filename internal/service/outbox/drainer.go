// Package outbox реализует обработку отложенных интеграционных задач.
package outbox

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/ident"
)

const defaultMaxAttempts = 5

var (
	outboxDrainedTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loms_outbox_drained_tasks_total",
		Help: "Total number of drained outbox tasks grouped by result.",
	}, []string{"result"})
	outboxPendingTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loms_outbox_pending_tasks",
		Help: "Current number of pending tasks in the outbox queue.",
	})
	outboxOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loms_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox task.",
	})
)

// DrainerOptions задаёт параметры драйнера.
type DrainerOptions struct {
	Logger      *log.Entry
	MaxAttempts int
}

// Option настраивает Drainer.
type Option func(*DrainerOptions)

// WithLogger задаёт logger драйнера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *DrainerOptions) {
		opts.Logger = logger
	}
}

// WithMaxAttempts задаёт число попыток на задачу до её отбрасывания.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *DrainerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// Drainer забирает задачи из очереди и повторяет упавший интеграционный
// шаг. Успешный повтор применяет те же изменения состояния, что и
// основной конвейер, и публикует те же события; после каждой задачи
// текущее состояние заказа републикуется как ORDER_UPDATED —
// reconciliation-сигнал для подписчиков.
//
// Дизайн предполагает единственного драйнера: триггером служит
// расписание или оператор, не конечные пользователи.
type Drainer struct {
	queue       domain.OutboxQueue
	working     domain.WorkingStore
	durable     domain.DurableStore
	bus         domain.EventPublisher
	cms         domain.CMSService
	wms         domain.WMSService
	ros         domain.ROSService
	logger      *log.Entry
	maxAttempts int
}

// NewDrainer создаёт драйнер очереди.
func NewDrainer(
	queue domain.OutboxQueue,
	working domain.WorkingStore,
	durable domain.DurableStore,
	bus domain.EventPublisher,
	cms domain.CMSService,
	wms domain.WMSService,
	ros domain.ROSService,
	options ...Option,
) *Drainer {
	opts := DrainerOptions{MaxAttempts: defaultMaxAttempts}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-drainer")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}

	return &Drainer{
		queue:       queue,
		working:     working,
		durable:     durable,
		bus:         bus,
		cms:         cms,
		wms:         wms,
		ros:         ros,
		logger:      logger,
		maxAttempts: opts.MaxAttempts,
	}
}

// DrainOnce атомарно забирает все текущие задачи и обрабатывает их по
// порядку. Возвращает число обработанных задач (включая отброшенные).
func (d *Drainer) DrainOnce(ctx context.Context) int {
	d.refreshBacklogMetrics()

	tasks := d.queue.Drain()
	if len(tasks) == 0 {
		return 0
	}

	processed := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			// Необработанный хвост возвращается в очередь.
			d.queue.Enqueue(task)
			continue
		}
		d.process(ctx, task)
		processed++
	}

	d.refreshBacklogMetrics()
	return processed
}

func (d *Drainer) process(ctx context.Context, task domain.OutboxTask) {
	order, ok := d.working.GetOrder(task.OrderID)
	if !ok {
		// Холодный working store (например, после рестарта) — задача
		// молча отбрасывается.
		d.logger.WithFields(log.Fields{
			"order_id": task.OrderID,
			"kind":     task.Kind,
		}).Debug("order not found in working store, dropping task")
		outboxDrainedTasks.WithLabelValues("dropped").Inc()
		return
	}

	if err := d.retryStep(ctx, &order, task.Kind); err != nil {
		task.Attempts++
		if task.Attempts >= d.maxAttempts {
			d.logger.WithError(err).WithFields(log.Fields{
				"order_id": task.OrderID,
				"kind":     task.Kind,
				"attempts": task.Attempts,
			}).Error("outbox task exhausted retry budget, dropping")
			outboxDrainedTasks.WithLabelValues("exhausted").Inc()
		} else {
			d.queue.Enqueue(task)
			outboxDrainedTasks.WithLabelValues("requeued").Inc()
		}
	} else {
		outboxDrainedTasks.WithLabelValues("completed").Inc()
	}

	// Независимо от исхода повтора публикуем текущее состояние заказа.
	if current, ok := d.working.GetOrder(task.OrderID); ok {
		d.bus.Publish(domain.OrderUpdated{Order: current.Clone()})
	}
}

// retryStep повторяет конкретный интеграционный шаг. Уже выполненный
// шаг (например, CMS успела зарегистрировать заказ по другой задаче)
// считается успехом без повторного вызова.
func (d *Drainer) retryStep(ctx context.Context, order *domain.Order, kind domain.OutboxKind) error {
	switch kind {
	case domain.OutboxKindCMSRegister:
		if order.CMSOrderID != "" {
			return nil
		}
		cmsOrderID, err := d.cms.RegisterOrder(ctx, order.ClientID, order.ID)
		if err != nil {
			return err
		}
		return d.save(ctx, order.ID, func(o *domain.Order) error {
			o.CMSOrderID = cmsOrderID
			return nil
		})

	case domain.OutboxKindWMSRegister:
		if order.Status != domain.OrderStatusPending {
			return nil
		}
		canonical, err := d.wms.RegisterPackages(ctx, order.Packages)
		if err != nil {
			return err
		}
		return d.save(ctx, order.ID, func(o *domain.Order) error {
			o.Packages = canonical
			return o.Advance(domain.OrderStatusInWMS, time.Now().UTC())
		})

	case domain.OutboxKindROSPlan:
		if order.RouteID != "" {
			return nil
		}
		route, err := d.ros.PlanRoute(ctx, order.Packages, order.DriverID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if route.ID == "" {
			route.ID = ident.Route()
		}
		route.Status = domain.RouteStatusAssigned
		route.CreatedAt = now
		route.UpdatedAt = now

		saveErr := d.save(ctx, order.ID, func(o *domain.Order) error {
			o.RouteID = route.ID
			return o.Advance(domain.OrderStatusRouted, now)
		})
		if saveErr != nil {
			return saveErr
		}

		d.working.PutRoute(route)
		d.bus.Publish(domain.RouteUpdated{OrderID: order.ID, Route: route.Clone()})
		d.bus.Publish(domain.RouteAssigned{RouteID: route.ID, DriverID: route.DriverID})
		if err := d.durable.UpsertRoute(ctx, route); err != nil {
			d.logger.WithError(err).WithField("route_id", route.ID).Warn("durable route write failed")
		}
		return nil

	default:
		d.logger.WithField("kind", kind).Warn("unknown outbox task kind, dropping")
		return nil
	}
}

// save применяет мутацию в working store и пишет результат best-effort
// в долговременное хранилище.
func (d *Drainer) save(ctx context.Context, orderID string, fn func(*domain.Order) error) error {
	updated, err := d.working.UpdateOrder(orderID, fn)
	if err != nil {
		return err
	}
	if err := d.durable.UpsertOrder(ctx, updated); err != nil {
		d.logger.WithError(err).WithField("order_id", orderID).Warn("durable order write failed")
	}
	return nil
}

func (d *Drainer) refreshBacklogMetrics() {
	stats := d.queue.Stats()

	outboxPendingTasks.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestEnqueued.IsZero() {
		outboxOldestPendingAge.Set(0)
		return
	}

	age := time.Since(stats.OldestEnqueued).Seconds()
	if age < 0 {
		age = 0
	}
	outboxOldestPendingAge.Set(age)
}
