package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

const documentQueryTimeout = 5 * time.Second

// DocumentStore — долговременное документное хранилище заказов и
// маршрутов поверх PostgreSQL. Агрегат хранится целиком как JSONB;
// колонки client_id/driver_id/status дублируют поля документа для
// индексированной фильтрации.
type DocumentStore struct {
	store *Store
}

// NewDocumentStore создаёт документное хранилище поверх подключения.
func NewDocumentStore(store *Store) *DocumentStore {
	return &DocumentStore{store: store}
}

// UpsertOrder записывает полный снимок заказа, перезаписывая прежний.
func (d *DocumentStore) UpsertOrder(ctx context.Context, order domain.Order) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, documentQueryTimeout)
	defer cancel()

	_, err = d.store.DB().ExecContext(queryCtx, `
		INSERT INTO orders (id, client_id, driver_id, status, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			client_id  = EXCLUDED.client_id,
			driver_id  = EXCLUDED.driver_id,
			status     = EXCLUDED.status,
			doc        = EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
	`, order.ID, order.ClientID, order.DriverID, string(order.Status), doc,
		order.CreatedAt.UTC(), order.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", order.ID, err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору или ErrOrderNotFound.
func (d *DocumentStore) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	queryCtx, cancel := context.WithTimeout(ctx, documentQueryTimeout)
	defer cancel()

	var doc []byte
	err := d.store.DB().QueryRowContext(queryCtx,
		`SELECT doc FROM orders WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order %s: %w", id, err)
	}

	var order domain.Order
	if err := json.Unmarshal(doc, &order); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders возвращает заказы по фильтру, новые первыми.
func (d *DocumentStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	queryCtx, cancel := context.WithTimeout(ctx, documentQueryTimeout)
	defer cancel()

	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(column, value string) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ClientID != "" {
		addCondition("client_id", filter.ClientID)
	}
	if filter.DriverID != "" {
		addCondition("driver_id", filter.DriverID)
	}
	if filter.Status != "" {
		addCondition("status", string(filter.Status))
	}

	query := `SELECT doc FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := d.store.DB().QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan order doc: %w", err)
		}
		var order domain.Order
		if err := json.Unmarshal(doc, &order); err != nil {
			return nil, fmt.Errorf("unmarshal order doc: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// UpsertRoute записывает полный снимок маршрута.
func (d *DocumentStore) UpsertRoute(ctx context.Context, route domain.Route) error {
	doc, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("marshal route %s: %w", route.ID, err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, documentQueryTimeout)
	defer cancel()

	_, err = d.store.DB().ExecContext(queryCtx, `
		INSERT INTO routes (id, driver_id, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			driver_id  = EXCLUDED.driver_id,
			doc        = EXCLUDED.doc,
			updated_at = NOW()
	`, route.ID, route.DriverID, doc)
	if err != nil {
		return fmt.Errorf("upsert route %s: %w", route.ID, err)
	}
	return nil
}

// GetRoute возвращает маршрут по идентификатору или ErrRouteNotFound.
func (d *DocumentStore) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	queryCtx, cancel := context.WithTimeout(ctx, documentQueryTimeout)
	defer cancel()

	var doc []byte
	err := d.store.DB().QueryRowContext(queryCtx,
		`SELECT doc FROM routes WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, domain.ErrRouteNotFound
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("query route %s: %w", id, err)
	}

	var route domain.Route
	if err := json.Unmarshal(doc, &route); err != nil {
		return domain.Route{}, fmt.Errorf("unmarshal route %s: %w", id, err)
	}
	return route, nil
}

var _ domain.DurableStore = (*DocumentStore)(nil)
