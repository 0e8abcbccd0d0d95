package registry

import (
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/storecraft-labs/order-intake/internal/observability"
)

// Registration keeps the service discoverable in Consul with an HTTP health
// check against /health.
type Registration struct {
	client    *api.Client
	serviceID string
	log       observability.Logger
}

func Register(consulAddr, serviceName, serviceID, host string, port int, logger observability.Logger) (*Registration, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	cfg := api.DefaultConfig()
	if consulAddr != "" {
		cfg.Address = consulAddr
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("registry: new consul client: %w", err)
	}

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("registry: register service: %w", err)
	}

	logger.Info("consul_service_registered",
		observability.F("service_id", serviceID),
		observability.F("consul_addr", cfg.Address),
	)
	return &Registration{client: client, serviceID: serviceID, log: logger}, nil
}

func (r *Registration) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("registry: deregister service: %w", err)
	}
	r.log.Info("consul_service_deregistered", observability.F("service_id", r.serviceID))
	return nil
}
