package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndSucceed()

	env, key := envelopeFor(domain.RouteAssigned{
		RouteID:  "rt_1",
		DriverID: "driver-7",
	}, time.Now().UTC())

	if err := producer.PublishEvent(TopicRouteEvents, key, env); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	env, key := envelopeFor(domain.PackageUpdated{
		OrderID: "ord_1",
		Package: domain.Package{ID: "pkg_1", Status: domain.PackageStatusDelivered},
	}, time.Now().UTC())

	err := producer.PublishEvent(TopicOrderEvents, key, env)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEnvelopeFor(t *testing.T) {
	now := time.Now().UTC()

	order := domain.Order{
		ID:      "ord_1",
		RouteID: "rt_1",
		Status:  domain.OrderStatusRouted,
	}

	env, key := envelopeFor(domain.OrderUpdated{Order: order}, now)

	if env.EventType != domain.EventOrderUpdated {
		t.Errorf("expected event type %s, got %s", domain.EventOrderUpdated, env.EventType)
	}
	if env.OrderID != "ord_1" {
		t.Errorf("expected order id ord_1, got %s", env.OrderID)
	}
	if env.RouteID != "rt_1" {
		t.Errorf("expected route id rt_1, got %s", env.RouteID)
	}
	if key != "ord_1" {
		t.Errorf("expected key ord_1, got %s", key)
	}
	if !env.PublishedAt.Equal(now) {
		t.Error("published_at should be set")
	}
}

func TestEnvelopeFor_RouteAssignedKey(t *testing.T) {
	env, key := envelopeFor(domain.RouteAssigned{
		RouteID:  "rt_9",
		DriverID: "driver-1",
	}, time.Now().UTC())

	if key != "rt_9" {
		t.Errorf("expected route id as key, got %s", key)
	}
	if env.OrderID != "" {
		t.Errorf("expected empty order id, got %s", env.OrderID)
	}
}

func TestTopicFor(t *testing.T) {
	if got := topicFor(domain.EventOrderUpdated); got != TopicOrderEvents {
		t.Errorf("expected %s, got %s", TopicOrderEvents, got)
	}
	if got := topicFor(domain.EventPackageUpdated); got != TopicOrderEvents {
		t.Errorf("expected %s, got %s", TopicOrderEvents, got)
	}
	if got := topicFor(domain.EventRouteUpdated); got != TopicRouteEvents {
		t.Errorf("expected %s, got %s", TopicRouteEvents, got)
	}
	if got := topicFor(domain.EventRouteAssigned); got != TopicRouteEvents {
		t.Errorf("expected %s, got %s", TopicRouteEvents, got)
	}
}
