package httppresentation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/application/payment"
	appstore "github.com/storecraft-labs/order-intake/internal/application/store"
	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/observability"
	"github.com/storecraft-labs/order-intake/internal/observability/logctx"
)

const componentHTTPHandler = "http_server"

type Handler struct {
	checkoutService *checkout.Service
	paymentService  *payment.Service
	storeService    *appstore.Service
	jwtSecret       string
	log             observability.Logger
	tel             observability.Observability
}

func NewHandler(
	checkoutSvc *checkout.Service,
	paymentSvc *payment.Service,
	storeSvc *appstore.Service,
	jwtSecret string,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		checkoutService: checkoutSvc,
		paymentService:  paymentSvc,
		storeService:    storeSvc,
		jwtSecret:       jwtSecret,
		log:             tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:             tel,
	}
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), CORSMiddleware(), ObservabilityMiddleware(h.log, h.tel))

	r.GET("/health", h.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Storefront endpoints are scoped by store; the path parameter is the
	// tenant key.
	api := r.Group("/api/:storeId")
	{
		api.POST("/checkout", h.handleCheckout)
		api.POST("/checkout/cod", h.handleCheckoutCOD)
		api.POST("/verify-payment", h.handleVerifyPayment)
	}

	// Store management is owner-facing and JWT-gated.
	stores := r.Group("/stores")
	{
		stores.POST("", h.handleCreateStore)
		stores.GET("", h.handleListStores)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type checkoutRequest struct {
	ProductIDs   []string `json:"productIds"`
	Amount       int64    `json:"amount"`
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	AddressLine1 string   `json:"addressLine1"`
	AddressLine2 string   `json:"addressLine2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postalCode"`
	Country      string   `json:"country"`
}

func (r checkoutRequest) toInput(storeID string) checkout.Input {
	return checkout.Input{
		StoreID:    storeID,
		ProductIDs: r.ProductIDs,
		Amount:     r.Amount,
		FullName:   r.FullName,
		Email:      r.Email,
		Phone:      r.Phone,
		Shipping: customer.Address{
			Line1:      r.AddressLine1,
			Line2:      r.AddressLine2,
			City:       r.City,
			State:      r.State,
			PostalCode: r.PostalCode,
			Country:    r.Country,
		},
	}
}

// handleCheckout starts a prepaid checkout and hands the gateway order back to
// the storefront, which opens the provider's payment widget with it.
func (h *Handler) handleCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), checkout.ModeGateway, req.toInput(c.Param("storeId")))
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.GatewayOrder)
}

func (h *Handler) handleCheckoutCOD(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), checkout.ModeCashOnDelivery, req.toInput(c.Param("storeId")))
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId": result.Order.ID,
		"message": "Order placed successfully with Cash on Delivery",
	})
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (h *Handler) handleVerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	entity, err := h.paymentService.Verify(c.Request.Context(), payment.VerifyInput{
		StoreID:        c.Param("storeId"),
		GatewayOrderID: req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		Signature:      req.RazorpaySignature,
	})
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified successfully",
		"order":   toOrderResponse(entity),
	})
}

type createStoreRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateStore(c *gin.Context) {
	ownerID, sub, err := h.caller(c)
	if err != nil {
		c.String(http.StatusForbidden, "Unauthorized")
		return
	}

	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	entity, err := h.storeService.Create(c.Request.Context(), ownerID, req.Name, sub)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStoreResponse(entity))
}

func (h *Handler) handleListStores(c *gin.Context) {
	ownerID, _, err := h.caller(c)
	if err != nil {
		c.String(http.StatusForbidden, "Unauthorized")
		return
	}

	list, err := h.storeService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	out := make([]storeResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toStoreResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) writeCheckoutError(c *gin.Context, err error) {
	var oos *checkout.OutOfStockError
	var unknown *checkout.UnknownProductError
	var gw *checkout.GatewayError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.String(http.StatusBadRequest, "Product ids are required")
	case errors.Is(err, checkout.ErrAmountRequired):
		c.String(http.StatusBadRequest, "Amount is required")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCredentialsMissing):
		c.String(http.StatusBadRequest, "Store Razorpay credentials not found")
	case errors.As(err, &oos):
		c.String(http.StatusBadRequest, "Product "+oos.Name+" is out of stock")
	case errors.As(err, &unknown):
		c.String(http.StatusBadRequest, "Product "+unknown.ProductID+" not found")
	case errors.As(err, &gw):
		h.logInternal(c, "gateway", err)
		c.String(http.StatusInternalServerError, "Internal error")
	default:
		h.logInternal(c, "checkout", err)
		c.String(http.StatusInternalServerError, "Internal error")
	}
}

func (h *Handler) writeVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrSignatureMissing):
		c.String(http.StatusBadRequest, "Webhook signature missing")
	case errors.Is(err, payment.ErrInvalidSignature):
		c.String(http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCredentialsMissing):
		c.String(http.StatusBadRequest, "Store Razorpay credentials not found")
	case errors.Is(err, order.ErrNotFound):
		c.String(http.StatusNotFound, "Order not found")
	default:
		h.logInternal(c, "verify_payment", err)
		c.String(http.StatusInternalServerError, "Internal error")
	}
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	var limit *appstore.StoreLimitError

	switch {
	case errors.Is(err, appstore.ErrUnauthorized):
		c.String(http.StatusForbidden, "Unauthorized")
	case errors.Is(err, appstore.ErrSubscriptionNeeded), errors.Is(err, appstore.ErrSubscriptionExpired):
		c.String(http.StatusForbidden, err.Error())
	case errors.As(err, &limit):
		c.String(http.StatusForbidden, limit.Error())
	case errors.Is(err, store.ErrNameRequired):
		c.String(http.StatusBadRequest, "Store name is required")
	default:
		h.logInternal(c, "store", err)
		c.String(http.StatusInternalServerError, "Internal error")
	}
}

func (h *Handler) logInternal(c *gin.Context, stage string, err error) {
	logctx.FromOr(c.Request.Context(), h.log).Error("request_failed",
		observability.F("stage", stage),
		observability.F("error", err.Error()),
	)
}

type lineItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
}

type orderResponse struct {
	ID             string             `json:"id"`
	StoreID        string             `json:"storeId"`
	IsPaid         bool               `json:"isPaid"`
	PaymentMethod  string             `json:"paymentMethod"`
	PaymentStatus  string             `json:"paymentStatus"`
	OrderStatus    string             `json:"orderStatus"`
	GatewayOrderID string             `json:"razorpayOrderId,omitempty"`
	PaymentID      string             `json:"paymentId,omitempty"`
	Items          []lineItemResponse `json:"items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]lineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemResponse{ID: it.ID, ProductID: it.ProductID})
	}
	return orderResponse{
		ID:             o.ID,
		StoreID:        o.StoreID,
		IsPaid:         o.IsPaid,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		OrderStatus:    string(o.Status),
		GatewayOrderID: o.GatewayOrderID,
		PaymentID:      o.PaymentID,
		Items:          items,
	}
}

type storeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toStoreResponse(s *store.Store) storeResponse {
	return storeResponse{
		ID:        s.ID,
		Name:      s.Name,
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt,
	}
}
