package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в системе оркестрации.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, интеграционные шаги ещё не завершены.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusInWMS — склад принял заказ и присвоил посылкам канонические идентификаторы.
	OrderStatusInWMS OrderStatus = "IN_WMS"
	// OrderStatusRouted — маршрут построен и назначен водителю.
	OrderStatusRouted OrderStatus = "ROUTED"
	// OrderStatusDelivered — все посылки заказа доставлены.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusFailed — хотя бы одна посылка не доставлена; статус терминальный и «липкий».
	OrderStatusFailed OrderStatus = "FAILED"
)

// orderStatusRank задаёт порядок продвижения статусов для проверки монотонности.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusInWMS:     1,
	OrderStatusRouted:    2,
	OrderStatusDelivered: 3,
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusFailed
}

// PackageStatus описывает состояние отдельной посылки.
type PackageStatus string

const (
	// PackageStatusWaiting — посылка ожидает обработки.
	PackageStatusWaiting PackageStatus = "WAITING"
	// PackageStatusInTransit — посылка в пути.
	PackageStatusInTransit PackageStatus = "IN_TRANSIT"
	// PackageStatusDelivered — посылка доставлена; переходов из этого статуса нет.
	PackageStatusDelivered PackageStatus = "DELIVERED"
	// PackageStatusFailed — доставка не удалась; переходов из этого статуса нет.
	PackageStatusFailed PackageStatus = "FAILED"
)

// Terminal сообщает, является ли статус посылки конечным.
func (s PackageStatus) Terminal() bool {
	return s == PackageStatusDelivered || s == PackageStatusFailed
}

// DeliveryProof фиксирует подтверждение терминального перехода посылки.
// Reason заполняется только для FAILED, Timestamp проставляется системными часами.
type DeliveryProof struct {
	SignatureDataURL string    `json:"signature_data_url,omitempty"`
	PhotoURL         string    `json:"photo_url,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Package — единица доставки внутри заказа.
type Package struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	StockItemID string         `json:"stock_item_id,omitempty"`
	Quantity    int64          `json:"quantity,omitempty"`
	Status      PackageStatus  `json:"status"`
	Proof       *DeliveryProof `json:"proof,omitempty"`
}

// MarkDelivered переводит посылку в DELIVERED с подтверждением.
// Из терминальных статусов переход запрещён.
func (p *Package) MarkDelivered(proof DeliveryProof, now time.Time) error {
	if p.Status.Terminal() {
		return ErrPackageTerminal
	}
	proof.Reason = ""
	proof.Timestamp = now
	p.Status = PackageStatusDelivered
	p.Proof = &proof
	return nil
}

// MarkFailed переводит посылку в FAILED с обязательной причиной.
func (p *Package) MarkFailed(reason string, now time.Time) error {
	if p.Status.Terminal() {
		return ErrPackageTerminal
	}
	if reason == "" {
		return ErrProofReasonRequired
	}
	p.Status = PackageStatusFailed
	p.Proof = &DeliveryProof{Reason: reason, Timestamp: now}
	return nil
}

// Order агрегирует посылки и состояние интеграционных шагов.
type Order struct {
	ID         string      `json:"id"`
	ClientID   string      `json:"client_id"`
	DriverID   string      `json:"driver_id"`
	Packages   []Package   `json:"packages"`
	Status     OrderStatus `json:"status"`
	RouteID    string      `json:"route_id,omitempty"`
	CMSOrderID string      `json:"cms_order_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Advance переводит заказ в новый статус, запрещая регресс.
// FAILED достижим из любого нетерминального статуса; из FAILED выхода нет.
func (o *Order) Advance(to OrderStatus, now time.Time) error {
	if o.Status == to {
		return nil
	}
	if o.Status.Terminal() {
		return ErrOrderTerminal
	}
	if to == OrderStatusFailed {
		o.Status = OrderStatusFailed
		o.UpdatedAt = now
		return nil
	}
	if orderStatusRank[to] < orderStatusRank[o.Status] {
		return ErrStatusRegression
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Recalculate пересчитывает статус заказа по статусам посылок:
// FAILED, если провалена хотя бы одна; DELIVERED, только если доставлены все.
func (o *Order) Recalculate(now time.Time) {
	if o.Status == OrderStatusFailed {
		return
	}

	allDelivered := len(o.Packages) > 0
	for i := range o.Packages {
		if o.Packages[i].Status == PackageStatusFailed {
			_ = o.Advance(OrderStatusFailed, now)
			return
		}
		if o.Packages[i].Status != PackageStatusDelivered {
			allDelivered = false
		}
	}
	if allDelivered {
		_ = o.Advance(OrderStatusDelivered, now)
	}
}

// FindPackage возвращает индекс посылки в заказе или -1, если её нет.
func (o *Order) FindPackage(packageID string) int {
	for i := range o.Packages {
		if o.Packages[i].ID == packageID {
			return i
		}
	}
	return -1
}

// Clone возвращает глубокую копию заказа, чтобы кэш не отдавал разделяемые срезы.
func (o Order) Clone() Order {
	dst := o
	dst.Packages = make([]Package, len(o.Packages))
	copy(dst.Packages, o.Packages)
	for i := range dst.Packages {
		if p := dst.Packages[i].Proof; p != nil {
			proof := *p
			dst.Packages[i].Proof = &proof
		}
	}
	return dst
}
