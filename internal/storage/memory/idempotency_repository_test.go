package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

func TestIdempotencyRegisterDuplicate(t *testing.T) {
	repo := NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	if err := repo.Register("key-1", "ord_1", ttl); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := repo.Register("key-1", "ord_2", ttl); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("duplicate Register() error = %v, want %v", err, domain.ErrDuplicateRequest)
	}
	if err := repo.Register("key-2", "ord_2", ttl); err != nil {
		t.Fatalf("distinct key Register() error = %v", err)
	}
}

func TestIdempotencyRegisterEmptyKey(t *testing.T) {
	repo := NewIdempotencyRepository()

	for _, key := range []string{"", "   "} {
		if err := repo.Register(key, "ord_1", time.Time{}); !errors.Is(err, domain.ErrIdempotencyKeyRequired) {
			t.Errorf("Register(%q) error = %v, want %v", key, err, domain.ErrIdempotencyKeyRequired)
		}
	}
}

func TestIdempotencyExpiredKeyIsReusable(t *testing.T) {
	repo := NewIdempotencyRepository()
	expired := time.Now().UTC().Add(-time.Minute)

	if err := repo.Register("key-1", "ord_1", expired); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	// запись просрочена, ключ можно использовать снова
	if err := repo.Register("key-1", "ord_2", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("Register() after expiry error = %v", err)
	}
}

func TestIdempotencyDeleteReleasesKey(t *testing.T) {
	repo := NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	if err := repo.Register("key-1", "ord_1", ttl); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	repo.Delete("key-1")
	if err := repo.Register("key-1", "ord_2", ttl); err != nil {
		t.Fatalf("Register() after Delete error = %v", err)
	}

	// удаление неизвестного ключа — no-op
	repo.Delete("key-missing")
}

func TestIdempotencyDeleteExpired(t *testing.T) {
	repo := NewIdempotencyRepository()
	now := time.Now().UTC()

	for _, key := range []string{"old-1", "old-2", "old-3"} {
		if err := repo.Register(key, "ord_x", now.Add(-time.Minute)); err != nil {
			t.Fatalf("Register(%s) error = %v", key, err)
		}
	}
	if err := repo.Register("fresh", "ord_y", now.Add(time.Hour)); err != nil {
		t.Fatalf("Register(fresh) error = %v", err)
	}

	removed, err := repo.DeleteExpired(now, 2)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2 (limit honored)", removed)
	}

	removed, err = repo.DeleteExpired(now, 0)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	// живой ключ пережил очистку
	if err := repo.Register("fresh", "ord_z", now.Add(time.Hour)); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("fresh key survived: Register() error = %v, want %v", err, domain.ErrDuplicateRequest)
	}
}
