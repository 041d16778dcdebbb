package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// ConsulConfig describes how the service announces itself to Consul.
type ConsulConfig struct {
	Address        string `env:"ADDRESS"`
	ServiceName    string `env:"SERVICE_NAME"    envDefault:"notes-service"`
	ServiceAddress string `env:"SERVICE_ADDRESS" envDefault:"127.0.0.1"`
}

// Enabled reports whether a Consul agent address was configured.
func (c ConsulConfig) Enabled() bool {
	return c.Address != ""
}

// ServiceRegistrar registers and deregisters a service instance with Consul.
type ServiceRegistrar struct {
	client *api.Client
	cfg    ConsulConfig
}

func NewServiceRegistrar(cfg ConsulConfig) (*ServiceRegistrar, error) {
	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.Address

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ServiceRegistrar{client: client, cfg: cfg}, nil
}

// Register announces the HTTP endpoint with an HTTP health check on healthPath
// and a gRPC health check on grpcPort.
func (r *ServiceRegistrar) Register(httpPort, grpcPort int, healthPath string) (string, error) {
	registration := NewServiceRegistration(r.cfg, httpPort, grpcPort, healthPath)

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return "", fmt.Errorf("failed to register service with consul: %w", err)
	}

	return registration.ID, nil
}

// Deregister removes the service instance from Consul.
func (r *ServiceRegistrar) Deregister(serviceID string) error {
	return r.client.Agent().ServiceDeregister(serviceID)
}

// NewServiceRegistration builds the agent registration for one service instance.
func NewServiceRegistration(cfg ConsulConfig, httpPort, grpcPort int, healthPath string) *api.AgentServiceRegistration {
	httpAddr := net.JoinHostPort(cfg.ServiceAddress, strconv.Itoa(httpPort))
	grpcAddr := net.JoinHostPort(cfg.ServiceAddress, strconv.Itoa(grpcPort))

	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s", cfg.ServiceName, httpAddr),
		Name:    cfg.ServiceName,
		Address: cfg.ServiceAddress,
		Port:    httpPort,
		Tags:    []string{"http"},
		Checks: api.AgentServiceChecks{
			{
				Name:                           "http",
				HTTP:                           "http://" + httpAddr + healthPath,
				Interval:                       "10s",
				Timeout:                        "2s",
				DeregisterCriticalServiceAfter: "1m",
			},
			{
				Name:                           "grpc",
				GRPC:                           grpcAddr + "/" + cfg.ServiceName,
				Interval:                       "10s",
				Timeout:                        "2s",
				DeregisterCriticalServiceAfter: "1m",
			},
		},
	}
}
