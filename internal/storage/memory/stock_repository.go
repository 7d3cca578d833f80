package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// StockRepository — in-memory реализация складских остатков для
// разработки и тестов. Reserve атомарен относительно всей заявки.
type StockRepository struct {
	mu    sync.Mutex
	items map[string]domain.StockItem
}

// NewStockRepository создаёт пустой репозиторий остатков.
func NewStockRepository() *StockRepository {
	return &StockRepository{items: make(map[string]domain.StockItem)}
}

// Put кладёт или перезаписывает позицию (для seed в тестах и dev-режиме).
func (r *StockRepository) Put(item domain.StockItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	r.items[item.ID] = item
}

// Get возвращает позицию или ErrStockItemNotFound.
func (r *StockRepository) Get(_ context.Context, itemID string) (domain.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return domain.StockItem{}, domain.ErrStockItemNotFound
	}
	return item, nil
}

// Reserve проверяет и списывает остатки по всем строкам под одной
// блокировкой: либо списаны все, либо ни одна. Остаток никогда не
// уходит в минус.
func (r *StockRepository) Reserve(_ context.Context, lines []domain.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Сначала полная проверка, затем списание: частичных списаний нет.
	// Спрос агрегируется по позиции — несколько строк на один товар
	// проверяются против остатка суммарно.
	demand := make(map[string]int64, len(lines))
	for _, line := range lines {
		demand[line.ItemID] += line.Quantity
	}
	for itemID, quantity := range demand {
		item, ok := r.items[itemID]
		if !ok {
			return domain.ErrStockItemNotFound
		}
		if item.Quantity < quantity {
			return domain.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for _, line := range lines {
		item := r.items[line.ItemID]
		item.Quantity -= line.Quantity
		item.UpdatedAt = now
		r.items[line.ItemID] = item
	}

	return nil
}

var _ domain.StockRepository = (*StockRepository)(nil)
