package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// workingStore — mutex-защищённый процессный кэш заказов и маршрутов.
// Все методы работают с копиями, чтобы вызывающий код не мутировал
// разделяемое состояние в обход блокировки.
type workingStore struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	routes map[string]domain.Route
}

// NewWorkingStore создаёт пустой working store.
func NewWorkingStore() domain.WorkingStore {
	return &workingStore{
		orders: make(map[string]domain.Order),
		routes: make(map[string]domain.Route),
	}
}

// PutOrder перезаписывает заказ в кэше.
func (s *workingStore) PutOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
}

// GetOrder возвращает копию заказа.
func (s *workingStore) GetOrder(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return order.Clone(), true
}

// ListOrders возвращает копии всех заказов кэша.
func (s *workingStore) ListOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, order.Clone())
	}
	return result
}

// UpdateOrder применяет fn к заказу под блокировкой хранилища.
func (s *workingStore) UpdateOrder(id string, fn func(*domain.Order) error) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	updated := order.Clone()
	if err := fn(&updated); err != nil {
		return domain.Order{}, err
	}
	s.orders[id] = updated
	return updated.Clone(), nil
}

// UpdateOrderByPackage находит заказ-владелец посылки линейным сканом
// и применяет fn под той же блокировкой, что и поиск.
func (s *workingStore) UpdateOrderByPackage(packageID string, fn func(*domain.Order) error) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, order := range s.orders {
		if order.FindPackage(packageID) < 0 {
			continue
		}

		updated := order.Clone()
		if err := fn(&updated); err != nil {
			return domain.Order{}, err
		}
		s.orders[id] = updated
		return updated.Clone(), nil
	}

	return domain.Order{}, domain.ErrPackageNotFound
}

// PutRoute перезаписывает маршрут в кэше.
func (s *workingStore) PutRoute(route domain.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route.ID] = route.Clone()
}

// GetRoute возвращает копию маршрута.
func (s *workingStore) GetRoute(id string) (domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	route, ok := s.routes[id]
	if !ok {
		return domain.Route{}, false
	}
	return route.Clone(), true
}

var _ domain.WorkingStore = (*workingStore)(nil)
