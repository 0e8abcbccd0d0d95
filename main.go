package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storecraft-labs/order-intake/internal/application/checkout"
	"github.com/storecraft-labs/order-intake/internal/application/payment"
	appstore "github.com/storecraft-labs/order-intake/internal/application/store"
	"github.com/storecraft-labs/order-intake/internal/config"
	"github.com/storecraft-labs/order-intake/internal/domain/customer"
	"github.com/storecraft-labs/order-intake/internal/domain/order"
	"github.com/storecraft-labs/order-intake/internal/domain/product"
	"github.com/storecraft-labs/order-intake/internal/domain/store"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/id"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/kafka"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/memory"
	obsprovider "github.com/storecraft-labs/order-intake/internal/infrastructure/observability"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/observability/oteltrace"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/observability/prometrics"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/observability/zaplogger"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/outbox"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/postgres"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/razorpay"
	"github.com/storecraft-labs/order-intake/internal/infrastructure/registry"
	"github.com/storecraft-labs/order-intake/internal/observability"
	httppresentation "github.com/storecraft-labs/order-intake/internal/presentation/http"
)

// persistence is what every storage backend provides: repository views plus
// the transactional scope checkout runs in.
type persistence interface {
	Stores() store.Repository
	Products() product.Repository
	Customers() customer.Repository
	Orders() order.Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos checkout.TxRepos) error) error
}

func main() {
	cfg := config.Load()

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	defer func() { _ = baseLogger.Sync() }()

	tel := obsprovider.New(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		buildCounters(),
		buildHistograms(),
	)
	log := tel.Logger()

	db, closeDB, err := openPersistence(context.Background(), cfg, log)
	if err != nil {
		log.Error("persistence_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer closeDB()

	bus := outbox.NewBus(log)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka_init_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		publisher.RelayFrom(bus, order.EventOrderCreated, order.EventOrderPaid)
	}

	gatewayOpts := []razorpay.Option{}
	if cfg.GatewayBaseURL != "" {
		gatewayOpts = append(gatewayOpts, razorpay.WithBaseURL(cfg.GatewayBaseURL))
	}
	gateway := razorpay.NewClient(gatewayOpts...)
	idGenerator := id.NewUUIDGenerator()

	checkoutService := checkout.NewService(
		db.Stores(), db.Customers(), db.Products(), db, gateway, idGenerator, bus, tel,
	)
	paymentService := payment.NewService(
		db.Stores(), db.Orders(), razorpay.NewSignatureVerifier(), bus, tel,
	)
	storeService := appstore.NewService(db.Stores(), idGenerator, tel)

	handler := httppresentation.NewHandler(checkoutService, paymentService, storeService, cfg.JWTSecret, tel)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	if cfg.ConsulAddr != "" {
		host, port := splitAddr(cfg.HTTPAddr)
		reg, err := registry.Register(cfg.ConsulAddr, cfg.ServiceName, cfg.ServiceName+"-"+idGenerator.NewID(), host, port, log)
		if err != nil {
			log.Error("consul_registration_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if err := reg.Deregister(); err != nil {
				log.Warn("consul_deregistration_failed", observability.F("error", err.Error()))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		log.Info("http_server_stopped")
	}
}

func openPersistence(ctx context.Context, cfg config.Config, log observability.Logger) (persistence, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("persistence_memory_selected")
		return memory.NewDB(), func() {}, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("persistence_postgres_selected")
	return db, db.Close, nil
}

func buildCounters() map[observability.MetricKey]observability.Counter {
	reg := metricsRegistry()
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: reg.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: reg.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests served.",
			"method", "route", "status",
		),
		observability.MExternalRequests: reg.Counter(
			string(observability.MExternalRequests),
			"Total number of outbound calls to external peers.",
			"peer", "endpoint", "outcome",
		),
	}
}

func buildHistograms() map[observability.MetricKey]observability.Histogram {
	reg := metricsRegistry()
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: reg.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: reg.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: reg.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of outbound external calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}
}

var sharedRegistry prometrics.Registry

func metricsRegistry() prometrics.Registry {
	if sharedRegistry == nil {
		sharedRegistry = prometrics.New("", "")
	}
	return sharedRegistry
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost", 8080
	}
	if host == "" {
		host = "localhost"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8080
	}
	return host, port
}
