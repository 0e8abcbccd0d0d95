package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/storecraft-labs/order-intake/internal/observability"
	"github.com/storecraft-labs/order-intake/internal/observability/logctx"
)

const headerRequestID = "X-Request-ID"

// CORSMiddleware answers preflight requests and opens the API to storefront
// origins. Tightening the origin list is a deployment concern.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// ObservabilityMiddleware combines:
// - W3C Trace Context extraction
// - request-scoped logger injection (dynamic fields only)
// - X-Request-ID generation + echo
// - HTTP metrics (counter + histogram) with low-cardinality labels
func ObservabilityMiddleware(base observability.Logger, tel observability.Observability) gin.HandlerFunc {
	if tel == nil {
		tel = observability.Nop()
	}
	if base == nil {
		base = tel.Logger()
	}
	prop := otel.GetTextMapPropagator() // W3C by default
	metrics := tel.Metrics()
	reqCounter := metrics.Counter(observability.MHTTPRequests)
	durHistogram := metrics.Histogram(observability.MHTTPRequestDuration)

	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		sc := trace.SpanContextFromContext(ctx)

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		if sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		ctx = logctx.With(ctx, base.With(fields...))
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		// FullPath is the registered template, keeping labels low-cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		reqCounter.Add(1,
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
	}
}
