package orchestrator

import (
	"fmt"

	"github.com/vladislavdragonenkov/loms/internal/domain"
)

// Ограничения входных полей запроса на создание заказа.
const (
	minClientIDLen = 3
	maxClientIDLen = 100
	minDriverIDLen = 1
	maxDriverIDLen = 50
	minPackages    = 1
	maxPackages    = 50
	minDescLen     = 1
	maxDescLen     = 200
	minAddressLen  = 3
	maxAddressLen  = 200
)

// PackageRequest описывает одну посылку в запросе на создание заказа.
type PackageRequest struct {
	Description string
	Address     string
	StockItemID string
	Quantity    int64
}

// CreateOrderRequest — входные данные конвейера создания заказа.
type CreateOrderRequest struct {
	ClientID       string
	DriverID       string
	IdempotencyKey string
	Packages       []PackageRequest
}

// Validate проверяет форму запроса и возвращает ValidationError со
// всеми нарушенными полями сразу, а не с первым попавшимся.
func (r CreateOrderRequest) Validate() error {
	ve := &domain.ValidationError{}

	if l := len(r.ClientID); l < minClientIDLen || l > maxClientIDLen {
		ve.Add("client_id", fmt.Sprintf("length must be between %d and %d", minClientIDLen, maxClientIDLen))
	}
	if l := len(r.DriverID); l < minDriverIDLen || l > maxDriverIDLen {
		ve.Add("driver_id", fmt.Sprintf("length must be between %d and %d", minDriverIDLen, maxDriverIDLen))
	}
	if l := len(r.Packages); l < minPackages || l > maxPackages {
		ve.Add("packages", fmt.Sprintf("count must be between %d and %d", minPackages, maxPackages))
	}

	for i, p := range r.Packages {
		field := func(name string) string { return fmt.Sprintf("packages[%d].%s", i, name) }

		if l := len(p.Description); l < minDescLen || l > maxDescLen {
			ve.Add(field("description"), fmt.Sprintf("length must be between %d and %d", minDescLen, maxDescLen))
		}
		if l := len(p.Address); l < minAddressLen || l > maxAddressLen {
			ve.Add(field("address"), fmt.Sprintf("length must be between %d and %d", minAddressLen, maxAddressLen))
		}
		if p.StockItemID != "" && p.Quantity < 1 {
			ve.Add(field("quantity"), "must be at least 1 when stock_item_id is set")
		}
		if p.StockItemID == "" && p.Quantity != 0 {
			ve.Add(field("stock_item_id"), "required when quantity is set")
		}
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

// stockLines собирает требования к остаткам по всем посылкам запроса.
func (r CreateOrderRequest) stockLines() []domain.StockLine {
	var lines []domain.StockLine
	for _, p := range r.Packages {
		if p.StockItemID == "" {
			continue
		}
		lines = append(lines, domain.StockLine{ItemID: p.StockItemID, Quantity: p.Quantity})
	}
	return lines
}

// CreateOrderResult — ответ конвейера: достигнутое состояние заказа.
// Ответ успешен даже при провале всех интеграционных шагов — их
// повторит outbox.
type CreateOrderResult struct {
	OrderID string
	Status  domain.OrderStatus
	RouteID string
}
