package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft-labs/order-intake/internal/application/payment"
	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/memory"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/razorpay"
)

const (
	testSecret         = "rzp_secret"
	testGatewayOrderID = "rzp_order_abc"
	testPaymentID      = "pay_123"
)

func newFixture(t *testing.T, withCredentials bool) (*memory.DB, *payment.Service) {
	t.Helper()

	db := memory.NewDB()
	st := &store.Store{ID: "store-1", OwnerID: "owner-1", Name: "Test Store"}
	if withCredentials {
		st.Gateway = store.Credentials{KeyID: "rzp_key", KeySecret: testSecret}
	}
	db.PutStore(st)

	o, err := order.New("order-1", "store-1", "cust-1", "jane@example.com", "", customer.Address{}, []order.LineItem{
		{ID: "li-1", ProductID: "P1"},
	})
	require.NoError(t, err)
	o.AttachGatewayOrder(testGatewayOrderID)
	require.NoError(t, db.Orders().Insert(context.Background(), o))

	svc := payment.NewService(db.Stores(), db.Orders(), razorpay.NewSignatureVerifier(), nil, nil)
	return db, svc
}

func validVerifyInput() payment.VerifyInput {
	return payment.VerifyInput{
		StoreID:        "store-1",
		GatewayOrderID: testGatewayOrderID,
		PaymentID:      testPaymentID,
		Signature:      razorpay.Sign(testSecret, testGatewayOrderID, testPaymentID),
	}
}

func TestVerifyMarksOrderPaid(t *testing.T) {
	db, svc := newFixture(t, true)

	o, err := svc.Verify(context.Background(), validVerifyInput())
	require.NoError(t, err)

	assert.True(t, o.IsPaid)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, testPaymentID, o.PaymentID)

	persisted := db.GetOrder("order-1")
	assert.True(t, persisted.IsPaid)
	assert.Equal(t, testPaymentID, persisted.PaymentID)
}

func TestVerifyIsIdempotent(t *testing.T) {
	_, svc := newFixture(t, true)

	_, err := svc.Verify(context.Background(), validVerifyInput())
	require.NoError(t, err)

	o, err := svc.Verify(context.Background(), validVerifyInput())
	require.NoError(t, err)
	assert.True(t, o.IsPaid)
	assert.Equal(t, testPaymentID, o.PaymentID)
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	_, svc := newFixture(t, true)

	in := validVerifyInput()
	in.Signature = ""
	_, err := svc.Verify(context.Background(), in)
	require.ErrorIs(t, err, payment.ErrSignatureMissing)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	db, svc := newFixture(t, true)

	in := validVerifyInput()
	in.PaymentID = "pay_forged"
	_, err := svc.Verify(context.Background(), in)
	require.ErrorIs(t, err, payment.ErrInvalidSignature)

	// A rejected callback leaves the order untouched.
	persisted := db.GetOrder("order-1")
	assert.False(t, persisted.IsPaid)
	assert.Empty(t, persisted.PaymentID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	_, svc := newFixture(t, true)

	in := validVerifyInput()
	in.Signature = razorpay.Sign("other_secret", testGatewayOrderID, testPaymentID)
	_, err := svc.Verify(context.Background(), in)
	require.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestVerifyUnknownGatewayReference(t *testing.T) {
	_, svc := newFixture(t, true)

	in := payment.VerifyInput{
		StoreID:        "store-1",
		GatewayOrderID: "rzp_order_ghost",
		PaymentID:      testPaymentID,
		Signature:      razorpay.Sign(testSecret, "rzp_order_ghost", testPaymentID),
	}
	_, err := svc.Verify(context.Background(), in)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestVerifyCredentialsMissing(t *testing.T) {
	_, svc := newFixture(t, false)

	_, err := svc.Verify(context.Background(), validVerifyInput())
	require.ErrorIs(t, err, store.ErrCredentialsMissing)
}

func TestVerifyUnknownStore(t *testing.T) {
	_, svc := newFixture(t, true)

	in := validVerifyInput()
	in.StoreID = "missing"
	_, err := svc.Verify(context.Background(), in)
	require.ErrorIs(t, err, store.ErrNotFound)
}
