package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrRouteNotFound возвращается, если маршрут не найден в хранилище.
	ErrRouteNotFound = errors.New("route not found")
	// ErrPackageNotFound возвращается, если посылка не найдена ни в одном заказе.
	ErrPackageNotFound = errors.New("package not found")
	// ErrPackageTerminal — попытка перевести посылку из DELIVERED/FAILED.
	ErrPackageTerminal = errors.New("package is already in terminal status")
	// ErrOrderTerminal — попытка продвинуть заказ из терминального статуса.
	ErrOrderTerminal = errors.New("order is already in terminal status")
	// ErrStatusRegression — попытка отката статуса заказа назад.
	ErrStatusRegression = errors.New("order status must not regress")
	// ErrProofReasonRequired — для FAILED требуется причина.
	ErrProofReasonRequired = errors.New("failure reason is required")
	// ErrStockItemNotFound — складская позиция отсутствует.
	ErrStockItemNotFound = errors.New("stock item not found")
	// ErrInsufficientStock — остатка недостаточно для резервирования.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateRequest — idempotency-key уже был использован.
	ErrDuplicateRequest = errors.New("duplicate request: idempotency key already seen")
	// ErrIdempotencyKeyRequired — пустой idempotency-key недопустим.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrCMSUnavailable — CMS недоступна или вернула ошибку.
	ErrCMSUnavailable = errors.New("cms unavailable")
	// ErrWMSUnavailable — WMS недоступна или вернула ошибку.
	ErrWMSUnavailable = errors.New("wms unavailable")
	// ErrROSUnavailable — ROS недоступна или вернула ошибку.
	ErrROSUnavailable = errors.New("ros unavailable")
)

// FieldViolation описывает одно нарушение валидации входного поля.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError агрегирует все нарушения валидации одного запроса.
// Клиент получает полный список, а не первое попавшееся поле.
type ValidationError struct {
	Violations []FieldViolation
}

// Error реализует error, перечисляя все нарушения.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет нарушение в список.
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// Empty сообщает, что нарушений нет.
func (e *ValidationError) Empty() bool {
	return len(e.Violations) == 0
}

// AsValidation извлекает ValidationError из цепочки ошибок.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
