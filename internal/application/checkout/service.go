package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/outbox"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/observability"
	"github.com/storecraft-labs/order-intake/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Mode string

const (
	ModeCashOnDelivery Mode = "cod"
	ModeGateway        Mode = "gateway"
)

const (
	checkoutService = "checkout-service"
	spanPrefix      = "UC."
	gatewayPeer     = "razorpay"
	gatewayEndpoint = "orders.create"
	gatewayCurrency = "INR"
	publishTimeout  = 300 * time.Millisecond
)

type Input struct {
	StoreID    string
	ProductIDs []string
	Amount     int64
	FullName   string
	Email      string
	Phone      string
	Shipping   customer.Address
}

type Result struct {
	Order        *order.Order
	GatewayOrder *GatewayOrder
}

// Service orchestrates checkout: availability check, customer upsert, remote
// gateway order, then the atomic order build with stock decrement.
type Service struct {
	stores    store.Repository
	customers customer.Repository
	products  product.Repository
	uow       UnitOfWork
	gateway   Gateway
	idGen     IDGenerator
	publisher outbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewService(
	stores store.Repository,
	customers customer.Repository,
	products product.Repository,
	uow UnitOfWork,
	gateway Gateway,
	idGen IDGenerator,
	publisher outbox.Publisher,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &Service{
		stores:       stores,
		customers:    customers,
		products:     products,
		uow:          uow,
		gateway:      gateway,
		idGen:        idGen,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", checkoutService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Checkout runs the full intake sequence for one cart. The stock check and
// the decrement both happen, the decrement re-validated inside the unit of
// work, so concurrent carts for the same scarce product cannot both pass.
func (s *Service) Checkout(ctx context.Context, mode Mode, in Input) (_ *Result, err error) {
	useCase := "checkout." + string(mode)
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCase),
		observability.F("store_id", in.StoreID),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"Checkout",
		attribute.String("use_case", useCase),
		attribute.String("checkout.store_id", in.StoreID),
		attribute.Int("checkout.cart_size", len(in.ProductIDs)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCase),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if len(in.ProductIDs) == 0 {
		outcome, statusText = "error", "EMPTY_CART"
		return nil, ErrEmptyCart
	}

	st, err := s.stores.FindByID(ctx, in.StoreID)
	if err != nil {
		outcome, statusText = "error", "STORE_LOOKUP_FAILED"
		return nil, err
	}
	if mode == ModeGateway {
		if in.Amount <= 0 {
			outcome, statusText = "error", "AMOUNT_INVALID"
			return nil, ErrAmountRequired
		}
		// Fail before any side effect when the store can never complete a
		// prepaid checkout.
		if !st.Gateway.Configured() {
			outcome, statusText = "error", "GATEWAY_NOT_CONFIGURED"
			return nil, store.ErrCredentialsMissing
		}
	}

	requested, distinct := countCart(in.ProductIDs)
	byID, err := s.loadProducts(ctx, distinct)
	if err != nil {
		outcome, statusText = "error", "PRODUCT_LOOKUP_FAILED"
		return nil, err
	}
	for _, id := range distinct {
		p, ok := byID[id]
		if !ok {
			outcome, statusText = "error", "UNKNOWN_PRODUCT"
			return nil, &UnknownProductError{ProductID: id}
		}
		if !p.Available(requested[id]) {
			outcome, statusText = "error", "OUT_OF_STOCK"
			return nil, &OutOfStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: requested[id],
				Available: p.StockQuantity,
			}
		}
	}

	// Upsert is atomic and idempotent: retained even when a later step fails.
	cust, err := s.customers.Upsert(ctx, customer.New(
		s.idGen.NewID(), in.StoreID, in.Email, in.FullName, in.Phone, in.Shipping,
	))
	if err != nil {
		outcome, statusText = "error", "CUSTOMER_UPSERT_FAILED"
		return nil, fmt.Errorf("checkout: customer upsert: %w", err)
	}

	var gatewayOrder *GatewayOrder
	if mode == ModeGateway {
		gatewayOrder, err = s.createGatewayOrder(ctx, st.Gateway, in.Amount)
		if err != nil {
			outcome, statusText = "error", "GATEWAY_ORDER_FAILED"
			return nil, &GatewayError{Err: err}
		}
		span.AddEvent("gateway.order_created",
			trace.WithAttributes(attribute.String("gateway.order_id", gatewayOrder.ID)),
		)
	}

	items := make([]order.LineItem, 0, len(in.ProductIDs))
	for _, pid := range in.ProductIDs {
		items = append(items, order.LineItem{ID: s.idGen.NewID(), ProductID: pid})
	}
	entity, err := order.New(s.idGen.NewID(), in.StoreID, cust.ID, in.Email, in.Phone, in.Shipping, items)
	if err != nil {
		outcome, statusText = "error", "ORDER_CONSTRUCTION_FAILED"
		return nil, err
	}
	switch mode {
	case ModeCashOnDelivery:
		entity.MarkCashOnDelivery()
	case ModeGateway:
		entity.AttachGatewayOrder(gatewayOrder.ID)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if err := repos.Orders().Insert(ctx, entity); err != nil {
			return fmt.Errorf("checkout: insert order: %w", err)
		}
		for _, id := range distinct {
			if byID[id].SellWhenOutOfStock {
				continue
			}
			if err := repos.Products().DecrementStock(ctx, id, requested[id]); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					// A concurrent checkout may have consumed stock since the
					// availability check; report what the transaction sees.
					available := 0
					if fresh, lookupErr := repos.Products().FindByIDs(ctx, []string{id}); lookupErr == nil && len(fresh) == 1 {
						available = fresh[0].StockQuantity
					}
					return &OutOfStockError{
						ProductID: id,
						Name:      byID[id].Name,
						Requested: requested[id],
						Available: available,
					}
				}
				return fmt.Errorf("checkout: decrement stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		outcome, statusText = "error", "ORDER_TX_FAILED"
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			statusText = "OUT_OF_STOCK"
		}
		return nil, err
	}

	s.publish(ctx, order.NewOrderCreatedEvent(entity))

	span.SetAttributes(attribute.String("order.id", entity.ID))
	span.AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", entity.ID)),
	)

	return &Result{Order: entity, GatewayOrder: gatewayOrder}, nil
}

// countCart collapses the cart multiset into per-product quantities while
// preserving first-occurrence order for deterministic error reporting.
func countCart(productIDs []string) (map[string]int, []string) {
	requested := make(map[string]int, len(productIDs))
	distinct := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, seen := requested[id]; !seen {
			distinct = append(distinct, id)
		}
		requested[id]++
	}
	return requested, distinct
}

func (s *Service) loadProducts(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	prods, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("checkout: load products: %w", err)
	}
	byID := make(map[string]*product.Product, len(prods))
	for _, p := range prods {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *Service) createGatewayOrder(ctx context.Context, creds store.Credentials, amount int64) (*GatewayOrder, error) {
	receipt := fmt.Sprintf("order_%d", time.Now().UnixMilli())
	start := time.Now()
	gatewayOrder, err := s.gateway.CreateOrder(ctx, creds, amount, gatewayCurrency, receipt)

	extOutcome := "success"
	if err != nil {
		extOutcome = "error"
	}
	s.extCounter.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", gatewayEndpoint),
		observability.L("outcome", extOutcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", gatewayEndpoint),
	)
	return gatewayOrder, err
}

// publish emits a post-commit event on a best-effort basis. A publish failure
// never fails the checkout.
func (s *Service) publish(ctx context.Context, e outbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
