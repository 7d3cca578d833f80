package domain

import (
	"context"
	"time"
)

// WorkingStore — процессный кэш заказов и маршрутов.
// Все обработчики одного процесса видят согласованный снимок без
// обращения к долговременному хранилищу на каждое чтение.
type WorkingStore interface {
	// PutOrder кладёт копию заказа в кэш, перезаписывая прежнюю.
	PutOrder(order Order)
	// GetOrder возвращает копию заказа по идентификатору.
	GetOrder(id string) (Order, bool)
	// ListOrders возвращает копии всех закэшированных заказов.
	ListOrders() []Order
	// UpdateOrder выполняет fn над заказом под блокировкой хранилища
	// и возвращает итоговую копию. Ошибка fn отменяет запись.
	UpdateOrder(id string, fn func(*Order) error) (Order, error)
	// UpdateOrderByPackage находит заказ-владелец посылки сканом и
	// применяет fn атомарно относительно других мутаций кэша.
	UpdateOrderByPackage(packageID string, fn func(*Order) error) (Order, error)
	// PutRoute кладёт копию маршрута в кэш.
	PutRoute(route Route)
	// GetRoute возвращает копию маршрута по идентификатору.
	GetRoute(id string) (Route, bool)
}

// OrderFilter задаёт критерии выборки заказов из долговременного хранилища.
type OrderFilter struct {
	ClientID string
	DriverID string
	Status   OrderStatus
}

// Empty сообщает, что фильтр не задан.
func (f OrderFilter) Empty() bool {
	return f.ClientID == "" && f.DriverID == "" && f.Status == ""
}

// DurableStore — долговременное документное хранилище заказов и маршрутов.
// Запись выполняется write-through из оркестратора и best-effort:
// ошибка записи логируется, но не проваливает запрос.
type DurableStore interface {
	UpsertOrder(ctx context.Context, order Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	UpsertRoute(ctx context.Context, route Route) error
}

// StockRepository управляет складскими остатками.
type StockRepository interface {
	// Get возвращает позицию или ErrStockItemNotFound.
	Get(ctx context.Context, itemID string) (StockItem, error)
	// Reserve атомарно проверяет и списывает остатки по всем строкам:
	// либо списаны все, либо ни одна (ErrStockItemNotFound/ErrInsufficientStock).
	Reserve(ctx context.Context, lines []StockLine) error
}

// OutboxQueue — очередь отложенных интеграционных задач.
type OutboxQueue interface {
	// Enqueue добавляет задачу в конец очереди; дедупликации нет.
	Enqueue(task OutboxTask)
	// Drain атомарно забирает все задачи, оставляя очередь пустой.
	// Предполагается единственный драйнер; конкурентные Enqueue безопасны.
	Drain() []OutboxTask
	// Stats возвращает размер backlog и возраст самой старой задачи.
	Stats() OutboxStats
}

// IdempotencyRepository хранит использованные idempotency-ключи.
type IdempotencyRepository interface {
	// Register фиксирует ключ; живой дубликат даёт ErrDuplicateRequest.
	Register(key, orderID string, ttlAt time.Time) error
	// Delete освобождает ключ; отсутствующий ключ — no-op.
	Delete(key string)
	// DeleteExpired удаляет до limit записей с ttl <= before.
	DeleteExpired(before time.Time, limit int) (int, error)
}

// EventPublisher публикует доменные события всем текущим подписчикам.
type EventPublisher interface {
	Publish(event Event)
}

// CMSService — внешняя система учёта клиентов.
type CMSService interface {
	// RegisterOrder регистрирует заказ клиента и возвращает внешний идентификатор.
	RegisterOrder(ctx context.Context, clientID, orderID string) (string, error)
}

// WMSService — внешняя складская система.
type WMSService interface {
	// RegisterPackages передаёт посылки складу; ответ содержит
	// канонические идентификаторы и статусы, назначенные WMS.
	RegisterPackages(ctx context.Context, packages []Package) ([]Package, error)
}

// ROSService — внешняя система оптимизации маршрутов.
type ROSService interface {
	// PlanRoute строит маршрут для набора посылок и водителя.
	PlanRoute(ctx context.Context, packages []Package, driverID string) (Route, error)
}
