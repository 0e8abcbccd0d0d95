package razorpay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/razorpay"
)

var testCreds = store.Credentials{KeyID: "rzp_key", KeySecret: "rzp_secret"}

func TestCreateOrder(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rzp_order_1","amount":150000,"currency":"INR","receipt":"order_1","status":"created"}`))
	}))
	defer server.Close()

	client := razorpay.NewClient(razorpay.WithBaseURL(server.URL))
	got, err := client.CreateOrder(context.Background(), testCreds, 150000, "INR", "order_1")
	require.NoError(t, err)

	assert.Equal(t, "rzp_order_1", got.ID)
	assert.Equal(t, int64(150000), got.Amount)
	assert.Equal(t, "created", got.Status)
	assert.Equal(t, float64(150000), gotBody["amount"])
	assert.Equal(t, "INR", gotBody["currency"])
	assert.Equal(t, "order_1", gotBody["receipt"])
}

func TestCreateOrderRequiresCredentials(t *testing.T) {
	client := razorpay.NewClient()
	_, err := client.CreateOrder(context.Background(), store.Credentials{}, 100, "INR", "r1")
	require.ErrorIs(t, err, store.ErrCredentialsMissing)
}

func TestCreateOrderProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"description":"Authentication failed"}}`))
	}))
	defer server.Close()

	client := razorpay.NewClient(razorpay.WithBaseURL(server.URL))
	_, err := client.CreateOrder(context.Background(), testCreds, 100, "INR", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCreateOrderMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":100}`))
	}))
	defer server.Close()

	client := razorpay.NewClient(razorpay.WithBaseURL(server.URL))
	_, err := client.CreateOrder(context.Background(), testCreds, 100, "INR", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestSignatureVerifier(t *testing.T) {
	verifier := razorpay.NewSignatureVerifier()
	sig := razorpay.Sign("secret", "rzp_order_1", "pay_1")

	assert.True(t, verifier.Verify("secret", "rzp_order_1", "pay_1", sig))
	assert.False(t, verifier.Verify("secret", "rzp_order_1", "pay_2", sig))
	assert.False(t, verifier.Verify("other", "rzp_order_1", "pay_1", sig))
	assert.False(t, verifier.Verify("secret", "rzp_order_1", "pay_1", ""))
}
