package domain

import "time"

// StockItem — складская позиция с остатком.
type StockItem struct {
	ID        string    `json:"id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockLine — требование к остатку в рамках одного запроса на создание заказа.
type StockLine struct {
	ItemID   string
	Quantity int64
}
