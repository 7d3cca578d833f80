package wms

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// MockService — конфигурируемая заглушка WMSService для тестов.
// По умолчанию возвращает входные посылки с «серверными» идентификаторами,
// имитируя назначение канонических id складом.
type MockService struct {
	mu sync.Mutex

	RegisterErr   error
	Canonical     []domain.Package
	RegisterCalls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{}
}

// RegisterPackages возвращает заранее настроенный список либо копию
// входного с переименованными идентификаторами.
func (m *MockService) RegisterPackages(_ context.Context, packages []domain.Package) ([]domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RegisterCalls++
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	if m.Canonical != nil {
		result := make([]domain.Package, len(m.Canonical))
		copy(result, m.Canonical)
		return result, nil
	}

	result := make([]domain.Package, 0, len(packages))
	for i, p := range packages {
		result = append(result, domain.Package{
			ID:          fmt.Sprintf("wms-pkg-%d", i+1),
			Description: p.Description,
			Address:     p.Address,
			Status:      domain.PackageStatusWaiting,
		})
	}
	return result, nil
}

var _ domain.WMSService = (*MockService)(nil)
