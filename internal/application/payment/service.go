package payment

import (
	"context"
	"errors"
	"time"

	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/outbox"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/observability"
	"github.com/storecraft-labs/order-intake/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrSignatureMissing = errors.New("payment: signature is required")
	ErrInvalidSignature = errors.New("payment: invalid signature")
)

const (
	paymentService = "payment-service"
	useCaseVerify  = "payment.verify"
	spanPrefix     = "UC."
	publishTimeout = 300 * time.Millisecond
)

// SignatureVerifier checks the provider's callback signature against the
// store secret. Implementations must compare in constant time.
type SignatureVerifier interface {
	Verify(secret, gatewayOrderID, paymentID, signature string) bool
}

type VerifyInput struct {
	StoreID        string
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Service reconciles asynchronous payment callbacks with local orders. It is
// the only writer that flips a gateway order to paid after creation.
type Service struct {
	stores    store.Repository
	orders    order.Repository
	verifier  SignatureVerifier
	publisher outbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(
	stores store.Repository,
	orders order.Repository,
	verifier SignatureVerifier,
	publisher outbox.Publisher,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &Service{
		stores:       stores,
		orders:       orders,
		verifier:     verifier,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Verify recomputes the callback signature and, on a match, marks the
// correlated order paid. A mismatch mutates nothing; an unknown gateway
// reference is rejected, never used to create an order.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (_ *order.Order, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseVerify),
		observability.F("store_id", in.StoreID),
		observability.F("gateway_order_id", in.GatewayOrderID),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"VerifyPayment",
		attribute.String("use_case", useCaseVerify),
		attribute.String("payment.store_id", in.StoreID),
		attribute.String("payment.gateway_order_id", in.GatewayOrderID),
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
			observability.L("use_case", useCaseVerify),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCaseVerify),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if in.Signature == "" {
		outcome, statusText = "error", "SIGNATURE_MISSING"
		return nil, ErrSignatureMissing
	}

	st, err := s.stores.FindByID(ctx, in.StoreID)
	if err != nil {
		outcome, statusText = "error", "STORE_LOOKUP_FAILED"
		return nil, err
	}
	if st.Gateway.KeySecret == "" {
		outcome, statusText = "error", "GATEWAY_NOT_CONFIGURED"
		return nil, store.ErrCredentialsMissing
	}

	if !s.verifier.Verify(st.Gateway.KeySecret, in.GatewayOrderID, in.PaymentID, in.Signature) {
		outcome, statusText = "error", "SIGNATURE_MISMATCH"
		return nil, ErrInvalidSignature
	}

	entity, err := s.orders.FindByGatewayOrderID(ctx, in.StoreID, in.GatewayOrderID)
	if err != nil {
		outcome, statusText = "error", "ORDER_NOT_FOUND"
		return nil, err
	}

	entity.MarkPaid(in.PaymentID)
	if err = s.orders.Update(ctx, entity); err != nil {
		outcome, statusText = "error", "ORDER_UPDATE_FAILED"
		return nil, err
	}

	s.publish(ctx, order.NewOrderPaidEvent(entity))

	span.AddEvent("order.paid",
		trace.WithAttributes(attribute.String("order.id", entity.ID)),
	)
	return entity, nil
}

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
