package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics содержит метрики конвейера создания заказа.
type PipelineMetrics struct {
	ordersCreated    prometheus.Counter
	ordersRejected   prometheus.Counter
	stepFailures     *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	pipelineDuration prometheus.Histogram
	outboxEnqueued   *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	subscribers      prometheus.Gauge
}

// NewPipelineMetrics создаёт метрики с регистрацией в default registerer.
func NewPipelineMetrics() *PipelineMetrics {
	return newPipelineMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPipelineMetricsWithRegisterer(registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PipelineMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "loms_orders_created_total",
			Help: "Total number of orders accepted by the creation pipeline",
		}),
		ordersRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "loms_orders_rejected_total",
			Help: "Total number of order creation requests rejected by validation",
		}),
		stepFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "loms_integration_step_failures_total",
			Help: "Total number of integration step failures routed to the outbox",
		}, []string{"step"}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "loms_integration_step_duration_seconds",
			Help:    "Duration of individual integration steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		pipelineDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "loms_pipeline_duration_seconds",
			Help:    "Duration of the full order creation pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		outboxEnqueued: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "loms_outbox_enqueued_total",
			Help: "Total number of outbox tasks enqueued grouped by kind",
		}, []string{"kind"}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "loms_events_published_total",
			Help: "Total number of domain events published grouped by type",
		}, []string{"type"}),
		subscribers: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "loms_event_subscribers",
			Help: "Current number of event bus subscribers",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *PipelineMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых запросов.
func (m *PipelineMetrics) RecordOrderRejected() {
	m.ordersRejected.Inc()
}

// RecordStepFailure увеличивает счётчик провалов интеграционного шага.
func (m *PipelineMetrics) RecordStepFailure(step string) {
	m.stepFailures.WithLabelValues(step).Inc()
}

// RecordStepDuration записывает время выполнения интеграционного шага.
func (m *PipelineMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordPipelineDuration записывает полное время конвейера.
func (m *PipelineMetrics) RecordPipelineDuration(duration time.Duration) {
	m.pipelineDuration.Observe(duration.Seconds())
}

// RecordOutboxEnqueued увеличивает счётчик задач outbox.
func (m *PipelineMetrics) RecordOutboxEnqueued(kind string) {
	m.outboxEnqueued.WithLabelValues(kind).Inc()
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *PipelineMetrics) RecordEventPublished(eventType string) {
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// SetSubscribers выставляет текущее число подписчиков шины.
func (m *PipelineMetrics) SetSubscribers(n int) {
	m.subscribers.Set(float64(n))
}
