package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// documentStore — in-memory реализация DurableStore для разработки и
// тестов; в production её место занимает PostgreSQL-реализация.
type documentStore struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	routes map[string]domain.Route
}

// NewDocumentStore создаёт пустое документное хранилище.
func NewDocumentStore() domain.DurableStore {
	return &documentStore{
		orders: make(map[string]domain.Order),
		routes: make(map[string]domain.Route),
	}
}

// UpsertOrder перезаписывает документ заказа.
func (s *documentStore) UpsertOrder(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
	return nil
}

// GetOrder возвращает заказ или ErrOrderNotFound.
func (s *documentStore) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// ListOrders возвращает заказы по фильтру, свежие первыми.
func (s *documentStore) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.ClientID != "" && order.ClientID != filter.ClientID {
			continue
		}
		if filter.DriverID != "" && order.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// UpsertRoute перезаписывает документ маршрута.
func (s *documentStore) UpsertRoute(_ context.Context, route domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route.ID] = route.Clone()
	return nil
}

var _ domain.DurableStore = (*documentStore)(nil)
