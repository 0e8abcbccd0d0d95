package observability

// Metric keys registered by main and looked up by the services. Use-case
// metrics carry use_case/outcome labels, HTTP metrics method/route/status,
// and external metrics peer/endpoint for the payment-gateway calls.
const (
	MUsecaseRequests MetricKey = "usecase_requests_total"
	MUsecaseDuration MetricKey = "usecase_duration_seconds"

	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"

	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)
