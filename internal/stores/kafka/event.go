package kafka

import "time"

const (
	TopicOrderCreated = `orders.order-created`
	TopicOrderPaid    = `orders.order-paid`
)

// OrderCreatedEvent is published after checkout persists an order.
type OrderCreatedEvent struct {
	OrderId   int64     `json:"order_id"`
	UserId    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderPaidEvent is published when a gateway notification settles a payment.
type OrderPaidEvent struct {
	OrderId     int64     `json:"order_id"`
	PaymentType string    `json:"payment_type"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}
