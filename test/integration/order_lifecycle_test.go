package integration

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/integration/cms"
	"github.com/vladislavdragonenkov/loms/internal/integration/ros"
	"github.com/vladislavdragonenkov/loms/internal/integration/wms"
	"github.com/vladislavdragonenkov/loms/internal/service/driver"
	"github.com/vladislavdragonenkov/loms/internal/service/orchestrator"
	"github.com/vladislavdragonenkov/loms/internal/service/outbox"
	"github.com/vladislavdragonenkov/loms/internal/storage/memory"
)

// OrderLifecycleTestSuite тестирует полный жизненный цикл заказов
// через оркестратор, действия водителя и драйнер outbox.
type OrderLifecycleTestSuite struct {
	suite.Suite
	orch    *orchestrator.Orchestrator
	drivers *driver.Service
	drainer *outbox.Drainer
	queue   domain.OutboxQueue
	stock   *memory.StockRepository
	cms     *cms.MockService
	wms     *wms.MockService
	ros     *ros.MockService
	events  []domain.Event
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	working := memory.NewWorkingStore()
	durable := memory.NewDocumentStore()
	eventBus := bus.New(logger)

	suite.queue = memory.NewOutboxQueue()
	suite.stock = memory.NewStockRepository()
	suite.cms = cms.NewMockService()
	suite.wms = wms.NewMockService()
	suite.ros = ros.NewMockService()

	suite.events = nil
	eventBus.Subscribe(func(e domain.Event) {
		suite.events = append(suite.events, e)
	})

	suite.orch = orchestrator.NewWithoutMetrics(orchestrator.Deps{
		Working: working,
		Durable: durable,
		Stock:   suite.stock,
		Outbox:  suite.queue,
		Idem:    memory.NewIdempotencyRepository(),
		Bus:     eventBus,
		CMS:     suite.cms,
		WMS:     suite.wms,
		ROS:     suite.ros,
	}, logger)

	suite.drivers = driver.NewService(working, durable, eventBus, logger)
	suite.drainer = outbox.NewDrainer(
		suite.queue, working, durable, eventBus,
		suite.cms, suite.wms, suite.ros,
		outbox.WithLogger(logger),
	)
}

func (suite *OrderLifecycleTestSuite) createOrder() orchestrator.CreateOrderResult {
	result, err := suite.orch.CreateOrder(context.Background(), orchestrator.CreateOrderRequest{
		ClientID: "client-123",
		DriverID: "driver-7",
		Packages: []orchestrator.PackageRequest{
			{Description: "ноутбук", Address: "Лесная 12"},
			{Description: "монитор", Address: "Полевая 3"},
		},
	})
	require.NoError(suite.T(), err)
	return result
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	ctx := context.Background()

	// 1. Создаём заказ — все интеграции доступны
	result := suite.createOrder()
	require.Equal(suite.T(), domain.OrderStatusRouted, result.Status)
	require.NotEmpty(suite.T(), result.RouteID)

	order, err := suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "cms-1", order.CMSOrderID)
	require.Len(suite.T(), order.Packages, 2)

	// 2. Водитель доставляет обе посылки
	for _, p := range order.Packages {
		_, err := suite.drivers.Deliver(ctx, p.ID, domain.DeliveryProof{PhotoURL: "http://proof/" + p.ID})
		require.NoError(suite.T(), err)
	}

	// 3. Проверяем финальное состояние
	order, err = suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusDelivered, order.Status)

	// 4. Outbox пуст — повторов не требовалось
	require.Equal(suite.T(), 0, suite.queue.Stats().PendingCount)
	require.Equal(suite.T(), 1, suite.cms.RegisterCalls)
	require.Equal(suite.T(), 1, suite.wms.RegisterCalls)
	require.Equal(suite.T(), 1, suite.ros.PlanCalls)
}

func (suite *OrderLifecycleTestSuite) TestOutboxRecoveryLifecycle() {
	ctx := context.Background()

	// CMS и ROS лежат в момент создания заказа
	suite.cms.RegisterErr = domain.ErrCMSUnavailable
	suite.ros.PlanErr = domain.ErrROSUnavailable

	result := suite.createOrder()
	require.Equal(suite.T(), domain.OrderStatusInWMS, result.Status)
	require.Empty(suite.T(), result.RouteID)
	require.Equal(suite.T(), 2, suite.queue.Stats().PendingCount)

	// Системы восстановились — драйнер добирает оба шага
	suite.cms.RegisterErr = nil
	suite.ros.PlanErr = nil

	processed := suite.drainer.DrainOnce(ctx)
	require.Equal(suite.T(), 2, processed)
	require.Equal(suite.T(), 0, suite.queue.Stats().PendingCount)

	order, err := suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusRouted, order.Status)
	require.Equal(suite.T(), "cms-1", order.CMSOrderID)
	require.NotEmpty(suite.T(), order.RouteID)
}

func (suite *OrderLifecycleTestSuite) TestFailedDeliveryLifecycle() {
	ctx := context.Background()

	result := suite.createOrder()
	order, err := suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)

	// Первая посылка не доставлена — заказ становится FAILED
	_, err = suite.drivers.Fail(ctx, order.Packages[0].ID, "получатель отсутствует")
	require.NoError(suite.T(), err)

	order, err = suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusFailed, order.Status)

	// Доставка второй посылки не снимает FAILED
	_, err = suite.drivers.Deliver(ctx, order.Packages[1].ID, domain.DeliveryProof{})
	require.NoError(suite.T(), err)

	order, err = suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusFailed, order.Status)
}

func (suite *OrderLifecycleTestSuite) TestStockReservationLifecycle() {
	ctx := context.Background()
	suite.stock.Put(domain.StockItem{ID: "sku-laptop", Quantity: 2})

	req := orchestrator.CreateOrderRequest{
		ClientID: "client-123",
		DriverID: "driver-7",
		Packages: []orchestrator.PackageRequest{
			{Description: "ноутбук", Address: "Лесная 12", StockItemID: "sku-laptop", Quantity: 2},
		},
	}

	_, err := suite.orch.CreateOrder(ctx, req)
	require.NoError(suite.T(), err)

	// Остаток исчерпан — повторная заявка отклоняется валидацией
	_, err = suite.orch.CreateOrder(ctx, req)
	ve, ok := domain.AsValidation(err)
	require.True(suite.T(), ok)
	require.Len(suite.T(), ve.Violations, 1)

	item, err := suite.stock.Get(ctx, "sku-laptop")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(0), item.Quantity)
}

func (suite *OrderLifecycleTestSuite) TestEventStreamOverLifecycle() {
	ctx := context.Background()

	result := suite.createOrder()
	order, err := suite.orch.GetOrder(ctx, result.OrderID)
	require.NoError(suite.T(), err)

	_, err = suite.drivers.Deliver(ctx, order.Packages[0].ID, domain.DeliveryProof{})
	require.NoError(suite.T(), err)

	kinds := map[domain.EventType]int{}
	for _, e := range suite.events {
		kinds[e.Kind()]++
	}
	require.GreaterOrEqual(suite.T(), kinds[domain.EventOrderUpdated], 3)
	require.Equal(suite.T(), 1, kinds[domain.EventRouteUpdated])
	require.Equal(suite.T(), 1, kinds[domain.EventRouteAssigned])
	require.Equal(suite.T(), 1, kinds[domain.EventPackageUpdated])
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
