package kafka

import (
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
)

type stubPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	topic string
	key   string
	event interface{}
}

func (s *stubPublisher) PublishEvent(topic string, key string, event interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, publishedMessage{topic: topic, key: key, event: event})
	return nil
}

func (s *stubPublisher) published() []publishedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]publishedMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func TestRelay_RelaysBusEvents(t *testing.T) {
	t.Parallel()

	b := bus.New(log.WithField("component", "test-bus"))
	pub := &stubPublisher{}

	relay := NewRelay(pub, log.WithField("component", "test-relay"))
	relay.Attach(b)
	defer relay.Detach()

	b.Publish(domain.OrderUpdated{Order: domain.Order{ID: "ord_1", Status: domain.OrderStatusPending}})
	b.Publish(domain.RouteAssigned{RouteID: "rt_1", DriverID: "driver-7"})

	messages := pub.published()
	if len(messages) != 2 {
		t.Fatalf("expected 2 relayed messages, got %d", len(messages))
	}

	if messages[0].topic != TopicOrderEvents {
		t.Errorf("expected order topic, got %s", messages[0].topic)
	}
	if messages[0].key != "ord_1" {
		t.Errorf("expected key ord_1, got %s", messages[0].key)
	}

	if messages[1].topic != TopicRouteEvents {
		t.Errorf("expected route topic, got %s", messages[1].topic)
	}
	if messages[1].key != "rt_1" {
		t.Errorf("expected key rt_1, got %s", messages[1].key)
	}
}

func TestRelay_DetachStopsRelaying(t *testing.T) {
	t.Parallel()

	b := bus.New(log.WithField("component", "test-bus"))
	pub := &stubPublisher{}

	relay := NewRelay(pub, log.WithField("component", "test-relay"))
	relay.Attach(b)
	relay.Detach()
	relay.Detach() // повторный Detach — no-op

	b.Publish(domain.OrderUpdated{Order: domain.Order{ID: "ord_1"}})

	if got := len(pub.published()); got != 0 {
		t.Fatalf("expected no relayed messages after detach, got %d", got)
	}
}

func TestRelay_PublishErrorDoesNotPanic(t *testing.T) {
	t.Parallel()

	b := bus.New(log.WithField("component", "test-bus"))
	pub := &stubPublisher{err: errors.New("broker down")}

	relay := NewRelay(pub, log.WithField("component", "test-relay"))
	relay.Attach(b)
	defer relay.Detach()

	b.Publish(domain.OrderUpdated{Order: domain.Order{ID: "ord_1"}})

	if got := len(pub.published()); got != 0 {
		t.Fatalf("expected no delivered messages, got %d", got)
	}
}
