package registry

// ServiceInstance describes one reachable bridge endpoint.
type ServiceInstance struct {
	Addr     string
	Version  string
	Services []string // service names the endpoint exposes
}

// Registry announces bridge endpoints to a discovery backend so peers
// can locate them.
type Registry interface {
	Register(serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(serviceName string, addr string) error
	Discover(serviceName string) ([]ServiceInstance, error)
	Watch(serviceName string) <-chan []ServiceInstance
}
