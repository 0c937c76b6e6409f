package service

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper wraps service registration. Registration is optional: the
// service runs fine without a registry (empty registry_address in conf).
type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelperWithAddrs tries each consul address until one answers.
func NewConsulHelperWithAddrs(addrs []string) (*ConsulHelper, error) {
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		cli, err := api.NewClient(cfg)
		if err == nil {
			_, errPing := cli.Agent().Self()
			if errPing == nil {
				return &ConsulHelper{client: cli}, nil
			}
			lastErr = errPing
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// RegisterAPI registers this node with a TCP health check.
func (c *ConsulHelper) RegisterAPI(serviceName, nodeID, host string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:      nodeID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			TCP:      fmt.Sprintf("%s:%d", host, port),
			Interval: "10s",
			Timeout:  "2s",
		},
	}
	return c.client.Agent().ServiceRegister(reg)
}

// Deregister removes this node from the registry.
func (c *ConsulHelper) Deregister(nodeID string) error {
	return c.client.Agent().ServiceDeregister(nodeID)
}
