package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const stockQueryTimeout = 5 * time.Second

// StockRepository управляет складскими остатками в PostgreSQL.
// Reserve выполняется одной транзакцией: либо списаны все строки,
// либо ни одна.
type StockRepository struct {
	store *Store
}

// NewStockRepository создаёт репозиторий остатков поверх подключения.
func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

// Get возвращает позицию склада или ErrStockItemNotFound.
func (r *StockRepository) Get(ctx context.Context, itemID string) (domain.StockItem, error) {
	queryCtx, cancel := context.WithTimeout(ctx, stockQueryTimeout)
	defer cancel()

	var item domain.StockItem
	err := r.store.DB().QueryRowContext(queryCtx, `
		SELECT id, quantity, updated_at
		FROM stock_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.Quantity, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StockItem{}, domain.ErrStockItemNotFound
	}
	if err != nil {
		return domain.StockItem{}, fmt.Errorf("query stock item %s: %w", itemID, err)
	}
	return item, nil
}

// Put записывает позицию склада, перезаписывая количество.
func (r *StockRepository) Put(ctx context.Context, item domain.StockItem) error {
	queryCtx, cancel := context.WithTimeout(ctx, stockQueryTimeout)
	defer cancel()

	_, err := r.store.DB().ExecContext(queryCtx, `
		INSERT INTO stock_items (id, quantity, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			quantity   = EXCLUDED.quantity,
			updated_at = NOW()
	`, item.ID, item.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock item %s: %w", item.ID, err)
	}
	return nil
}

// Reserve атомарно списывает остатки по всем строкам. Условное
// UPDATE quantity >= $n не даёт количеству уйти в минус даже при
// конкурентных резервах; первая несостоявшаяся строка откатывает
// всю транзакцию.
func (r *StockRepository) Reserve(ctx context.Context, lines []domain.StockLine) error {
	if len(lines) == 0 {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, stockQueryTimeout)
	defer cancel()

	tx, err := r.store.DB().BeginTx(queryCtx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, line := range lines {
		result, err := tx.ExecContext(queryCtx, `
			UPDATE stock_items
			SET quantity = quantity - $2, updated_at = NOW()
			WHERE id = $1 AND quantity >= $2
		`, line.ItemID, line.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock item %s: %w", line.ItemID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve stock item %s: %w", line.ItemID, err)
		}
		if affected == 0 {
			return r.classifyReserveFailure(queryCtx, tx, line.ItemID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve tx: %w", err)
	}
	return nil
}

// classifyReserveFailure различает отсутствующую позицию и нехватку
// остатка для несостоявшегося условного UPDATE.
func (r *StockRepository) classifyReserveFailure(ctx context.Context, tx *sql.Tx, itemID string) error {
	var quantity int64
	err := tx.QueryRowContext(ctx,
		`SELECT quantity FROM stock_items WHERE id = $1`, itemID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("stock item %s: %w", itemID, domain.ErrStockItemNotFound)
	}
	if err != nil {
		return fmt.Errorf("classify reserve failure for %s: %w", itemID, err)
	}
	return fmt.Errorf("stock item %s: %w", itemID, domain.ErrInsufficientStock)
}

var _ domain.StockRepository = (*StockRepository)(nil)
