package domain

// EventType определяет тип доменного события.
type EventType string

const (
	// EventOrderUpdated — заказ изменил состояние.
	EventOrderUpdated EventType = "ORDER_UPDATED"
	// EventPackageUpdated — посылка изменила состояние.
	EventPackageUpdated EventType = "PACKAGE_UPDATED"
	// EventRouteUpdated — маршрут создан или изменён.
	EventRouteUpdated EventType = "ROUTE_UPDATED"
	// EventRouteAssigned — маршрут закреплён за водителем.
	EventRouteAssigned EventType = "ROUTE_ASSIGNED"
)

// Event — неизменяемое доменное событие; публикуется один раз и не мутирует.
type Event interface {
	Kind() EventType
}

// OrderUpdated несёт снимок заказа после изменения.
type OrderUpdated struct {
	Order Order `json:"order"`
}

// PackageUpdated несёт снимок посылки после изменения.
type PackageUpdated struct {
	OrderID string  `json:"order_id"`
	Package Package `json:"package"`
}

// RouteUpdated несёт снимок маршрута после изменения.
type RouteUpdated struct {
	OrderID string `json:"order_id"`
	Route   Route  `json:"route"`
}

// RouteAssigned сигнализирует о закреплении маршрута за водителем.
type RouteAssigned struct {
	RouteID  string `json:"route_id"`
	DriverID string `json:"driver_id"`
}

func (OrderUpdated) Kind() EventType   { return EventOrderUpdated }
func (PackageUpdated) Kind() EventType { return EventPackageUpdated }
func (RouteUpdated) Kind() EventType   { return EventRouteUpdated }
func (RouteAssigned) Kind() EventType  { return EventRouteAssigned }
