package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const (
	// degradedBacklogSize — размер backlog, начиная с которого сервис
	// считается degraded: интеграции отстают, но запросы обслуживаются.
	degradedBacklogSize = 100
	// degradedBacklogAge — возраст самой старой задачи для degraded.
	degradedBacklogAge = 10 * time.Minute
)

// NewOutboxChecker строит проверку backlog очереди outbox. Непустая
// очередь сама по себе не деградация: задачи появляются при каждом
// провале интеграционного шага и уходят на ближайшем drain.
func NewOutboxChecker(queue domain.OutboxQueue) Checker {
	return CheckerFunc(func() Check {
		start := time.Now()
		stats := queue.Stats()
		duration := time.Since(start)

		check := Check{
			Name:       "outbox",
			Status:     StatusHealthy,
			DurationMs: duration.Milliseconds(),
		}

		if stats.PendingCount == 0 {
			return check
		}

		age := time.Since(stats.OldestEnqueued)
		if stats.PendingCount >= degradedBacklogSize || age >= degradedBacklogAge {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("outbox backlog: %d tasks, oldest %s",
				stats.PendingCount, age.Round(time.Second))
		}

		return check
	})
}
