package order

import (
	"errors"
	"time"

	"github.com/storecraft-labs/order-intake/internal/domain/customer"
)

var (
	ErrNotFound = errors.New("order: not found")
	ErrNoItems  = errors.New("order: at least one line item is required")
)

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodRazorpay       PaymentMethod = "RAZORPAY"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// LineItem references one product. Quantity is modeled by repetition: a cart
// with the same product twice yields two line items.
type LineItem struct {
	ID        string
	ProductID string
}

type Order struct {
	ID             string
	StoreID        string
	CustomerID     string
	Items          []LineItem
	IsPaid         bool
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	Status         Status
	GatewayOrderID string
	PaymentID      string
	Email          string
	Phone          string
	Shipping       customer.Address
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New builds an unpaid pending order. The caller marks it cash-on-delivery or
// attaches a gateway order reference before persisting.
func New(id, storeID, customerID, email, phone string, shipping customer.Address, items []LineItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		StoreID:       storeID,
		CustomerID:    customerID,
		Items:         items,
		IsPaid:        false,
		PaymentStatus: PaymentStatusPending,
		Status:        StatusPending,
		Email:         email,
		Phone:         phone,
		Shipping:      shipping,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkCashOnDelivery confirms the order at creation time: cash orders are
// considered paid immediately.
func (o *Order) MarkCashOnDelivery() {
	o.PaymentMethod = PaymentMethodCashOnDelivery
	o.IsPaid = true
	o.PaymentStatus = PaymentStatusPaid
	o.Status = StatusConfirmed
	o.touch()
}

// AttachGatewayOrder correlates the order with a provider-issued reference.
// The order stays unpaid until a verified callback arrives.
func (o *Order) AttachGatewayOrder(gatewayOrderID string) {
	o.PaymentMethod = PaymentMethodRazorpay
	o.GatewayOrderID = gatewayOrderID
	o.touch()
}

// MarkPaid records a verified gateway payment. Re-applying it to an already
// paid order is idempotent.
func (o *Order) MarkPaid(paymentID string) {
	o.PaymentID = paymentID
	o.IsPaid = true
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentMethod = PaymentMethodRazorpay
	o.Status = StatusConfirmed
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}
