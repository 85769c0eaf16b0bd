package consul

import (
	"fmt"
	"os"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		config.Address = addr
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with consul along with an HTTP
// health check on /ping.
func RegisterService(client *consulapi.Client, serviceName, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", serviceName, address, port),
		Name:    serviceName,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service %s: %w", serviceName, err)
	}
	return nil
}

// ServicePort reads the port this instance should advertise.
func ServicePort() (int, error) {
	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		return 0, fmt.Errorf("SERVICE_PORT is not set")
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("invalid SERVICE_PORT %q: %w", port, err)
	}
	return p, nil
}
