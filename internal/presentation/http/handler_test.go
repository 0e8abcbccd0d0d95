package httppresentation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/application/payment"
	appstore "github.com/storecraft-labs/order-intake/internal/application/store"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/id"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/memory"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/razorpay"
	httppresentation "github.com/storecraft-labs/order-intake/internal/presentation/http"
)

const testJWTSecret = "test-jwt-secret"

type stubGateway struct{ err error }

func (g *stubGateway) CreateOrder(_ context.Context, _ store.Credentials, amount int64, currency, receipt string) (*checkout.GatewayOrder, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &checkout.GatewayOrder{ID: "rzp_order_1", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func newRouter(t *testing.T) (*memory.DB, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.NewDB()
	db.PutStore(&store.Store{
		ID: "store-1", OwnerID: "seed-owner", Name: "Test Store",
		Gateway: store.Credentials{KeyID: "rzp_key", KeySecret: "rzp_secret"},
	})
	p, err := product.New("P1", "store-1", "Widget", 5, false)
	require.NoError(t, err)
	db.PutProduct(p)

	idGen := id.NewUUIDGenerator()
	checkoutSvc := checkout.NewService(db.Stores(), db.Customers(), db.Products(), db, &stubGateway{}, idGen, nil, nil)
	paymentSvc := payment.NewService(db.Stores(), db.Orders(), razorpay.NewSignatureVerifier(), nil, nil)
	storeSvc := appstore.NewService(db.Stores(), idGen, nil)

	handler := httppresentation.NewHandler(checkoutSvc, paymentSvc, storeSvc, testJWTSecret, nil)
	return db, handler.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func checkoutBody() map[string]any {
	return map[string]any{
		"productIds":   []string{"P1", "P1"},
		"amount":       150000,
		"fullName":     "Jane Doe",
		"email":        "jane@example.com",
		"phone":        "555-0100",
		"addressLine1": "1 Main St",
		"city":         "Pune",
		"state":        "MH",
		"postalCode":   "411001",
		"country":      "IN",
	}
}

func ownerToken(t *testing.T, subscribed bool, storesAllowed int) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":          "owner-1",
		"isSubscribed": subscribed,
		"planDetails": map[string]any{
			"storesAllowed":       storesAllowed,
			"subscriptionEndDate": time.Now().Add(24 * time.Hour).UnixMilli(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	_, router := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	_, router := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/store-1/checkout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestIDEcho(t *testing.T) {
	_, router := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil, map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestCheckoutCOD(t *testing.T) {
	db, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/store-1/checkout/cod", checkoutBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Order placed successfully with Cash on Delivery", resp["message"])
	assert.NotEmpty(t, resp["orderId"])

	assert.Equal(t, 3, db.GetProduct("P1").StockQuantity)
}

func TestCheckoutGatewayReturnsProviderOrder(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/store-1/checkout", checkoutBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rzp_order_1", resp["id"])
	assert.Equal(t, "INR", resp["currency"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	_, router := newRouter(t)

	body := checkoutBody()
	body["productIds"] = []string{}
	rec := doJSON(t, router, http.MethodPost, "/api/store-1/checkout/cod", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Product ids are required", rec.Body.String())
}

func TestCheckoutUnknownStore(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/ghost/checkout", checkoutBody(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Store Razorpay credentials not found", rec.Body.String())
}

func TestCheckoutOutOfStock(t *testing.T) {
	_, router := newRouter(t)

	body := checkoutBody()
	body["productIds"] = []string{"P1", "P1", "P1", "P1", "P1", "P1"}
	rec := doJSON(t, router, http.MethodPost, "/api/store-1/checkout/cod", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Product Widget is out of stock", rec.Body.String())
}

func TestVerifyPayment(t *testing.T) {
	db, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/store-1/checkout", checkoutBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sig := razorpay.Sign("rzp_secret", "rzp_order_1", "pay_1")
	rec = doJSON(t, router, http.MethodPost, "/api/store-1/verify-payment", map[string]string{
		"razorpay_order_id":   "rzp_order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Message string `json:"message"`
		Order   struct {
			ID     string `json:"id"`
			IsPaid bool   `json:"isPaid"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Payment verified successfully", resp.Message)
	assert.True(t, resp.Order.IsPaid)

	persisted := db.GetOrder(resp.Order.ID)
	require.NotNil(t, persisted)
	assert.True(t, persisted.IsPaid)
}

func TestVerifyPaymentInvalidSignature(t *testing.T) {
	_, router := newRouter(t)

	doJSON(t, router, http.MethodPost, "/api/store-1/checkout", checkoutBody(), nil)

	rec := doJSON(t, router, http.MethodPost, "/api/store-1/verify-payment", map[string]string{
		"razorpay_order_id":   "rzp_order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "forged",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid signature", rec.Body.String())
}

func TestVerifyPaymentMissingSignature(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/store-1/verify-payment", map[string]string{
		"razorpay_order_id":   "rzp_order_1",
		"razorpay_payment_id": "pay_1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Webhook signature missing", rec.Body.String())
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	_, router := newRouter(t)

	sig := razorpay.Sign("rzp_secret", "rzp_order_ghost", "pay_1")
	rec := doJSON(t, router, http.MethodPost, "/api/store-1/verify-payment", map[string]string{
		"razorpay_order_id":   "rzp_order_ghost",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", rec.Body.String())
}

func TestStoreEndpointsRequireToken(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/stores", map[string]string{"name": "New Shop"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/stores", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateStore(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/stores", map[string]string{"name": "New Shop"}, map[string]string{
		"Authorization": ownerToken(t, true, 3),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "New Shop", resp["name"])
	assert.Equal(t, "owner-1", resp["ownerId"])
}

func TestCreateStoreWithoutSubscription(t *testing.T) {
	_, router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/stores", map[string]string{"name": "New Shop"}, map[string]string{
		"Authorization": ownerToken(t, false, 0),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListStores(t *testing.T) {
	_, router := newRouter(t)

	auth := map[string]string{"Authorization": ownerToken(t, true, 3)}
	rec := doJSON(t, router, http.MethodPost, "/stores", map[string]string{"name": "New Shop"}, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/stores", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "New Shop", list[0]["name"])
}
