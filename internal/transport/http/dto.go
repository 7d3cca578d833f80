package http

import (
	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/service/orchestrator"
)

// errorResponse — единый формат ошибки API.
type errorResponse struct {
	Code    int                     `json:"code"`
	Message string                  `json:"message"`
	Fields  []domain.FieldViolation `json:"fields,omitempty"`
}

// packageRequest описывает одну посылку в теле запроса.
type packageRequest struct {
	Description string `json:"description"`
	Address     string `json:"address"`
	StockItemID string `json:"stock_item_id,omitempty"`
	Quantity    int64  `json:"quantity,omitempty"`
}

// createOrderRequest — тело POST /api/v1/orders.
type createOrderRequest struct {
	ClientID string           `json:"client_id"`
	DriverID string           `json:"driver_id"`
	Packages []packageRequest `json:"packages"`
}

func (r createOrderRequest) toServiceRequest(idempotencyKey string) orchestrator.CreateOrderRequest {
	packages := make([]orchestrator.PackageRequest, 0, len(r.Packages))
	for _, p := range r.Packages {
		packages = append(packages, orchestrator.PackageRequest{
			Description: p.Description,
			Address:     p.Address,
			StockItemID: p.StockItemID,
			Quantity:    p.Quantity,
		})
	}
	return orchestrator.CreateOrderRequest{
		ClientID:       r.ClientID,
		DriverID:       r.DriverID,
		IdempotencyKey: idempotencyKey,
		Packages:       packages,
	}
}

// createOrderResponse — тело ответа на создание заказа.
type createOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domain.OrderStatus `json:"status"`
	RouteID string             `json:"route_id,omitempty"`
}

// deliverPackageRequest — тело POST /api/v1/packages/:id/deliver.
type deliverPackageRequest struct {
	SignatureDataURL string `json:"signature_data_url,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`
}

// failPackageRequest — тело POST /api/v1/packages/:id/fail.
type failPackageRequest struct {
	Reason string `json:"reason"`
}

// listOrdersResponse — тело ответа на выборку заказов.
type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// drainResponse — тело ответа на ручной drain.
type drainResponse struct {
	Processed int `json:"processed"`
}

// outboxStatsResponse — снимок состояния очереди outbox.
type outboxStatsResponse struct {
	PendingCount   int    `json:"pending_count"`
	OldestEnqueued string `json:"oldest_enqueued,omitempty"`
}
