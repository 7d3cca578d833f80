package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const defaultIdempotencyTTL = 24 * time.Hour

// idempotencyRepositoryInMemory хранит использованные idempotency-ключи.
// Рост ограничен TTL: просроченные записи вычищает фоновой воркер.
type idempotencyRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]domain.IdempotencyRecord
}

// NewIdempotencyRepository создаёт in-memory реализацию IdempotencyRepository.
func NewIdempotencyRepository() domain.IdempotencyRepository {
	return &idempotencyRepositoryInMemory{
		items: make(map[string]domain.IdempotencyRecord),
	}
}

// Register фиксирует ключ. Живой дубликат даёт ErrDuplicateRequest;
// просроченная запись перезаписывается.
func (r *idempotencyRepositoryInMemory) Register(key, orderID string, ttlAt time.Time) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	now := time.Now().UTC()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultIdempotencyTTL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[key]; ok && existing.TTLAt.After(now) {
		return domain.ErrDuplicateRequest
	}

	r.items[key] = domain.IdempotencyRecord{
		Key:       key,
		OrderID:   orderID,
		TTLAt:     ttlAt,
		CreatedAt: now,
	}
	return nil
}

// Delete освобождает ключ; отсутствующий ключ — no-op.
func (r *idempotencyRepositoryInMemory) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, strings.TrimSpace(key))
}

// DeleteExpired удаляет до limit записей с ttl <= before.
func (r *idempotencyRepositoryInMemory) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, record := range r.items {
		if record.TTLAt.After(before) {
			continue
		}

		delete(r.items, key)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}

	return removed, nil
}

var _ domain.IdempotencyRepository = (*idempotencyRepositoryInMemory)(nil)
