package domain

import "time"

// OutboxKind определяет, какой интеграционный шаг нужно повторить.
type OutboxKind string

const (
	// OutboxKindCMSRegister — регистрация заказа в CMS не удалась.
	OutboxKindCMSRegister OutboxKind = "CMS_REGISTER"
	// OutboxKindWMSRegister — регистрация посылок в WMS не удалась.
	OutboxKindWMSRegister OutboxKind = "WMS_REGISTER"
	// OutboxKindROSPlan — построение маршрута в ROS не удалось.
	OutboxKindROSPlan OutboxKind = "ROS_PLAN"
)

// OutboxTask — отложенная интеграционная задача.
// Дедупликации нет намеренно: два провала одного шага дают две задачи.
type OutboxTask struct {
	Kind       OutboxKind `json:"kind"`
	OrderID    string     `json:"order_id"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

// OutboxStats описывает текущий backlog очереди.
type OutboxStats struct {
	PendingCount   int
	OldestEnqueued time.Time
}
