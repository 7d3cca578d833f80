package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
)

var (
	relayPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loms_kafka_relay_published_total",
		Help: "Total number of domain events relayed to Kafka grouped by topic.",
	}, []string{"topic"})
	relayFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loms_kafka_relay_failures_total",
		Help: "Total number of failed Kafka relay publishes grouped by topic.",
	}, []string{"topic"})
)

// publisher — минимальный контракт Kafka producer'а, нужный relay.
type publisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// Relay подписывается на шину событий и ретранслирует каждое событие
// во внешний Kafka topic. Доставка best-effort: ошибка публикации
// логируется, событие не переигрывается.
type Relay struct {
	producer    publisher
	logger      *log.Entry
	unsubscribe func()
}

// NewRelay создаёт ретранслятор событий без подписки.
func NewRelay(producer publisher, logger *log.Entry) *Relay {
	if logger == nil {
		logger = log.WithField("component", "kafka-relay")
	}
	return &Relay{
		producer: producer,
		logger:   logger,
	}
}

// Attach подписывает relay на шину. Повторный вызов заменяет подписку.
func (r *Relay) Attach(b *bus.Bus) {
	r.Detach()
	r.unsubscribe = b.Subscribe(r.handle)
}

// Detach снимает подписку; без подписки — no-op.
func (r *Relay) Detach() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func (r *Relay) handle(event domain.Event) {
	env, key := envelopeFor(event, time.Now().UTC())
	topic := topicFor(event.Kind())

	if err := r.producer.PublishEvent(topic, key, env); err != nil {
		relayFailuresTotal.WithLabelValues(topic).Inc()
		r.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"event": event.Kind(),
			"key":   key,
		}).Error("failed to relay event to kafka")
		return
	}

	relayPublishedTotal.WithLabelValues(topic).Inc()
}
