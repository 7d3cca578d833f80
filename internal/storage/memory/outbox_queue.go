package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// outboxQueue — FIFO-очередь отложенных интеграционных задач.
// Очередь append-only и без дедупликации: шаг, упавший дважды,
// даёт две задачи.
type outboxQueue struct {
	mu    sync.Mutex
	tasks []domain.OutboxTask
}

// NewOutboxQueue создаёт пустую очередь.
func NewOutboxQueue() domain.OutboxQueue {
	return &outboxQueue{}
}

// Enqueue добавляет задачу в конец очереди.
func (q *outboxQueue) Enqueue(task domain.OutboxTask) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	q.tasks = append(q.tasks, task)
}

// Drain атомарно забирает все задачи и обнуляет очередь.
// Конкурентные Enqueue безопасны; конкурентные Drain не поддерживаются
// (предполагается единственный драйнер).
func (q *outboxQueue) Drain() []domain.OutboxTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.tasks
	q.tasks = nil
	return drained
}

// Stats возвращает размер backlog и время самой старой задачи.
func (q *outboxQueue) Stats() domain.OutboxStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := domain.OutboxStats{PendingCount: len(q.tasks)}
	if len(q.tasks) > 0 {
		stats.OldestEnqueued = q.tasks[0].EnqueuedAt
	}
	return stats
}

var _ domain.OutboxQueue = (*outboxQueue)(nil)
