package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
)

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New("o1", "s1", "c1", "jane@example.com", "555-0100", customer.Address{City: "Pune"}, []order.LineItem{
		{ID: "li1", ProductID: "p1"},
		{ID: "li2", ProductID: "p1"},
	})
	require.NoError(t, err)
	return o
}

func TestNewRequiresItems(t *testing.T) {
	_, err := order.New("o1", "s1", "c1", "", "", customer.Address{}, nil)
	require.ErrorIs(t, err, order.ErrNoItems)
}

func TestNewStartsPendingUnpaid(t *testing.T) {
	o := newTestOrder(t)

	assert.False(t, o.IsPaid)
	assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Len(t, o.Items, 2)
}

func TestMarkCashOnDelivery(t *testing.T) {
	o := newTestOrder(t)
	o.MarkCashOnDelivery()

	assert.True(t, o.IsPaid)
	assert.Equal(t, order.PaymentMethodCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, order.StatusConfirmed, o.Status)
}

func TestAttachGatewayOrderKeepsOrderUnpaid(t *testing.T) {
	o := newTestOrder(t)
	o.AttachGatewayOrder("rzp_order_123")

	assert.False(t, o.IsPaid)
	assert.Equal(t, order.PaymentMethodRazorpay, o.PaymentMethod)
	assert.Equal(t, "rzp_order_123", o.GatewayOrderID)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	o := newTestOrder(t)
	o.AttachGatewayOrder("rzp_order_123")

	o.MarkPaid("pay_abc")
	require.True(t, o.IsPaid)
	require.Equal(t, order.StatusConfirmed, o.Status)

	o.MarkPaid("pay_abc")
	assert.True(t, o.IsPaid)
	assert.Equal(t, "pay_abc", o.PaymentID)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
}

func TestCloneIsIndependent(t *testing.T) {
	o := newTestOrder(t)
	c := o.Clone()
	c.Items[0].ProductID = "changed"
	c.IsPaid = true

	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.False(t, o.IsPaid)
}
