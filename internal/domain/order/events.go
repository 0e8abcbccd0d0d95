package order

import "time"

const (
	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

// OrderCreatedEvent is emitted after the checkout transaction commits.
type OrderCreatedEvent struct {
	OrderID       string        `json:"order_id"`
	StoreID       string        `json:"store_id"`
	CustomerID    string        `json:"customer_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ItemCount     int           `json:"item_count"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

func (OrderCreatedEvent) EventName() string { return EventOrderCreated }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:       o.ID,
		StoreID:       o.StoreID,
		CustomerID:    o.CustomerID,
		PaymentMethod: o.PaymentMethod,
		ItemCount:     len(o.Items),
		OccurredAt:    time.Now().UTC(),
	}
}

// OrderPaidEvent is emitted when a gateway payment verification succeeds.
type OrderPaidEvent struct {
	OrderID    string    `json:"order_id"`
	StoreID    string    `json:"store_id"`
	PaymentID  string    `json:"payment_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (OrderPaidEvent) EventName() string { return EventOrderPaid }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	return OrderPaidEvent{
		OrderID:    o.ID,
		StoreID:    o.StoreID,
		PaymentID:  o.PaymentID,
		OccurredAt: time.Now().UTC(),
	}
}
