package cms

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// MockService — конфигурируемая заглушка CMSService для тестов.
type MockService struct {
	mu sync.Mutex

	RegisterErr   error
	CMSOrderID    string
	RegisterCalls int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{CMSOrderID: "cms-1"}
}

// RegisterOrder возвращает заранее настроенный результат и считает вызовы.
func (m *MockService) RegisterOrder(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RegisterCalls++
	if m.RegisterErr != nil {
		return "", m.RegisterErr
	}
	return m.CMSOrderID, nil
}

var _ domain.CMSService = (*MockService)(nil)
