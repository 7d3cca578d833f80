// Package bus реализует процессный publish/subscribe для доменных событий.
package bus

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// Handler обрабатывает одно доменное событие.
type Handler func(event domain.Event)

type subscriber struct {
	handler Handler
}

// Bus рассылает события синхронно всем подписчикам в порядке регистрации.
// Буферизации и повторной доставки нет: подписчик, появившийся после
// публикации, событие не увидит. Паника подписчика изолируется, чтобы
// один сломанный обработчик не блокировал остальных и публикатора.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscriber
	logger *log.Entry
}

// New создаёт пустую шину.
func New(logger *log.Entry) *Bus {
	if logger == nil {
		logger = log.WithField("component", "event-bus")
	}
	return &Bus{logger: logger}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
// Повторный вызов отписки — no-op.
func (b *Bus) Subscribe(handler Handler) func() {
	sub := &subscriber{handler: handler}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish синхронно доставляет событие всем текущим подписчикам.
// Порядок доставки — порядок регистрации.
func (b *Bus) Publish(event domain.Event) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.dispatch(sub, event)
	}
}

// dispatch вызывает обработчик с изоляцией паники: паника подписчика
// логируется, остальные подписчики получают событие как обычно.
func (b *Bus) dispatch(sub *subscriber, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(log.Fields{
				"event": event.Kind(),
				"panic": r,
			}).Error("subscriber panicked, event dropped for this subscriber")
		}
	}()
	sub.handler(event)
}

// SubscriberCount возвращает число текущих подписчиков.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var _ domain.EventPublisher = (*Bus)(nil)
