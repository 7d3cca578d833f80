package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// Topics для Kafka.
const (
	TopicOrderEvents = "loms.order.events"
	TopicRouteEvents = "loms.route.events"
)

// Envelope — транспортная обёртка доменного события.
type Envelope struct {
	EventType   domain.EventType `json:"event_type"`
	OrderID     string           `json:"order_id,omitempty"`
	RouteID     string           `json:"route_id,omitempty"`
	Payload     domain.Event     `json:"payload"`
	PublishedAt time.Time        `json:"published_at"`
}

// topicFor возвращает topic для типа события: события маршрутов идут
// отдельным потоком, всё остальное — в поток заказов.
func topicFor(kind domain.EventType) string {
	switch kind {
	case domain.EventRouteUpdated, domain.EventRouteAssigned:
		return TopicRouteEvents
	default:
		return TopicOrderEvents
	}
}

// envelopeFor строит Envelope с ключом партиционирования по агрегату.
func envelopeFor(event domain.Event, now time.Time) (Envelope, string) {
	env := Envelope{
		EventType:   event.Kind(),
		Payload:     event,
		PublishedAt: now,
	}

	switch e := event.(type) {
	case domain.OrderUpdated:
		env.OrderID = e.Order.ID
		if e.Order.RouteID != "" {
			env.RouteID = e.Order.RouteID
		}
	case domain.PackageUpdated:
		env.OrderID = e.OrderID
	case domain.RouteUpdated:
		env.OrderID = e.OrderID
		env.RouteID = e.Route.ID
	case domain.RouteAssigned:
		env.RouteID = e.RouteID
	}

	key := env.OrderID
	if key == "" {
		key = env.RouteID
	}
	return env, key
}
