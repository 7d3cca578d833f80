package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

func TestStockRepositoryReserve(t *testing.T) {
	ctx := context.Background()

	repo := NewStockRepository()
	repo.Put(domain.StockItem{ID: "sku-1", Quantity: 10})
	repo.Put(domain.StockItem{ID: "sku-2", Quantity: 3})

	err := repo.Reserve(ctx, []domain.StockLine{
		{ItemID: "sku-1", Quantity: 4},
		{ItemID: "sku-2", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	item, err := repo.Get(ctx, "sku-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Quantity != 6 {
		t.Errorf("sku-1 quantity = %d, want 6", item.Quantity)
	}
	item, _ = repo.Get(ctx, "sku-2")
	if item.Quantity != 0 {
		t.Errorf("sku-2 quantity = %d, want 0", item.Quantity)
	}
}

func TestStockRepositoryReserveAllOrNothing(t *testing.T) {
	ctx := context.Background()

	repo := NewStockRepository()
	repo.Put(domain.StockItem{ID: "sku-1", Quantity: 10})
	repo.Put(domain.StockItem{ID: "sku-2", Quantity: 1})

	err := repo.Reserve(ctx, []domain.StockLine{
		{ItemID: "sku-1", Quantity: 5},
		{ItemID: "sku-2", Quantity: 2},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("Reserve() error = %v, want %v", err, domain.ErrInsufficientStock)
	}

	// первая строка не должна быть списана частично
	item, _ := repo.Get(ctx, "sku-1")
	if item.Quantity != 10 {
		t.Errorf("sku-1 quantity = %d, want 10 (no partial reservation)", item.Quantity)
	}

	err = repo.Reserve(ctx, []domain.StockLine{
		{ItemID: "sku-1", Quantity: 1},
		{ItemID: "sku-missing", Quantity: 1},
	})
	if !errors.Is(err, domain.ErrStockItemNotFound) {
		t.Fatalf("Reserve() error = %v, want %v", err, domain.ErrStockItemNotFound)
	}
	item, _ = repo.Get(ctx, "sku-1")
	if item.Quantity != 10 {
		t.Errorf("sku-1 quantity = %d, want 10", item.Quantity)
	}
}

func TestStockRepositoryReserveDuplicateItemLines(t *testing.T) {
	ctx := context.Background()

	repo := NewStockRepository()
	repo.Put(domain.StockItem{ID: "sku-1", Quantity: 4})

	// две строки на одну позицию проверяются суммарно, а не по отдельности
	err := repo.Reserve(ctx, []domain.StockLine{
		{ItemID: "sku-1", Quantity: 3},
		{ItemID: "sku-1", Quantity: 3},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("Reserve() error = %v, want %v", err, domain.ErrInsufficientStock)
	}
	item, _ := repo.Get(ctx, "sku-1")
	if item.Quantity != 4 {
		t.Errorf("quantity = %d, want 4 (no decrement)", item.Quantity)
	}

	// суммарный спрос в пределах остатка резервируется целиком
	err = repo.Reserve(ctx, []domain.StockLine{
		{ItemID: "sku-1", Quantity: 2},
		{ItemID: "sku-1", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	item, _ = repo.Get(ctx, "sku-1")
	if item.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", item.Quantity)
	}
}

func TestStockRepositoryGetMissing(t *testing.T) {
	repo := NewStockRepository()

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrStockItemNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, domain.ErrStockItemNotFound)
	}
}

func TestStockRepositoryConcurrentReserveNeverNegative(t *testing.T) {
	ctx := context.Background()

	repo := NewStockRepository()
	repo.Put(domain.StockItem{ID: "sku-1", Quantity: 10})

	const workers = 30

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if err := repo.Reserve(ctx, []domain.StockLine{{ItemID: "sku-1", Quantity: 1}}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("successful reservations = %d, want 10", succeeded)
	}
	item, _ := repo.Get(ctx, "sku-1")
	if item.Quantity != 0 {
		t.Errorf("final quantity = %d, want 0", item.Quantity)
	}
}
