package domain

import "time"

// IdempotencyRecord фиксирует использованный idempotency-key.
// Записи живут до TTLAt и вычищаются фоновым воркером, чтобы
// долгоживущий процесс не накапливал ключи бесконечно.
type IdempotencyRecord struct {
	Key       string
	OrderID   string
	TTLAt     time.Time
	CreatedAt time.Time
}
