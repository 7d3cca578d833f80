package ros

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// MockService — конфигурируемая заглушка ROSService для тестов.
type MockService struct {
	mu sync.Mutex

	PlanErr   error
	RouteID   string
	PlanCalls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{RouteID: "ros-route-1"}
}

// PlanRoute строит тривиальный маршрут по адресам посылок в порядке следования.
func (m *MockService) PlanRoute(_ context.Context, packages []domain.Package, driverID string) (domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PlanCalls++
	if m.PlanErr != nil {
		return domain.Route{}, m.PlanErr
	}

	route := domain.Route{
		ID:       m.RouteID,
		DriverID: driverID,
		Status:   domain.RouteStatusAssigned,
	}
	for _, p := range packages {
		route.Waypoints = append(route.Waypoints, p.Address)
		route.PackageIDs = append(route.PackageIDs, p.ID)
	}
	return route, nil
}

var _ domain.ROSService = (*MockService)(nil)
