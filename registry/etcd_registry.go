// Package registry provides etcd-backed announcement and discovery of
// bridge endpoints.
//
// Each endpoint registers under
//
//	Key:   /rpc-bridge/{ServiceName}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Registration is lease-based: if the server crashes, the lease expires and
// etcd drops the entry, so stale endpoints never linger.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const keyPrefix = "/rpc-bridge/"

// EtcdRegistry implements Registry on top of etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
	logger *zap.Logger
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string, logger *zap.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, logger: logger}, nil
}

// Register stores the instance in etcd under a TTL lease and starts a
// background KeepAlive to renew it.
//
// The lease ID stays a local variable rather than a struct field, so one
// EtcdRegistry can safely register several instances concurrently.
func (r *EtcdRegistry) Register(serviceName string, instance ServiceInstance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, keyPrefix+serviceName+"/"+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain KeepAlive responses so the channel never fills up.
	go func() {
		for range ch {
		}
		r.logger.Debug("lease keepalive stopped",
			zap.String("service", serviceName),
			zap.String("addr", instance.Addr))
	}()

	r.logger.Info("endpoint registered",
		zap.String("service", serviceName),
		zap.String("addr", instance.Addr),
		zap.Int64("ttl", ttl))
	return nil
}

// Deregister removes the instance entry. Called during graceful shutdown
// before the listener closes.
func (r *EtcdRegistry) Deregister(serviceName string, addr string) error {
	_, err := r.client.Delete(context.TODO(), keyPrefix+serviceName+"/"+addr)
	if err != nil {
		return err
	}
	r.logger.Info("endpoint deregistered",
		zap.String("service", serviceName),
		zap.String("addr", addr))
	return nil
}

// Watch monitors a service prefix and emits the full instance list whenever
// it changes (registrations, deregistrations, lease expirations).
func (r *EtcdRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ctx := context.TODO()
	ch := make(chan []ServiceInstance, 1)
	prefix := keyPrefix + serviceName + "/"

	go func() {
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch the whole list instead of folding individual events.
			instances, _ := r.Discover(serviceName)
			ch <- instances
		}
	}()

	return ch
}

// Discover returns all currently registered instances for a service.
func (r *EtcdRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	resp, err := r.client.Get(context.TODO(), keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0)
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			r.logger.Warn("skipping malformed registry entry", zap.ByteString("key", kv.Key))
			continue
		}
		instances = append(instances, instance)
	}

	return instances, nil
}
