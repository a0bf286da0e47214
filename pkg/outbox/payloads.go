package outbox

import "github.com/google/uuid"

// OrderCreatedEvent is emitted in the same transaction that persists an order.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderKey     string    `json:"order_key"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	Total        string    `json:"total"`
	Currency     string    `json:"currency"`
	ItemCount    int       `json:"item_count"`
}
