package consul

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/redis/go-redis/v9"
)

// ErrServiceNotFound is returned when no healthy instance is registered.
var ErrServiceNotFound = errors.New("service not found")

const checkTTL = "5s"

// Registry registers service instances with a Consul agent and keeps their TTL check passing.
type Registry struct {
	client *api.Client
}

func NewRegistry(addr string) (*Registry, error) {
	config := api.DefaultConfig()
	config.Address = addr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}
	return &Registry{client: client}, nil
}

func checkID(instanceID string) string {
	return "service:" + instanceID
}

// Register announces instanceID of serviceName at hostPort ("host:port").
func (r *Registry) Register(ctx context.Context, instanceID, serviceName, hostPort string) error {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("parse service address %q: %w", hostPort, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("parse service port %q: %w", portStr, err)
	}

	reg := &api.AgentServiceRegistration{
		ID:      instanceID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			CheckID:                        checkID(instanceID),
			TTL:                            checkTTL,
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	opts := api.ServiceRegisterOpts{}.WithContext(ctx)
	if err := r.client.Agent().ServiceRegisterOpts(reg, opts); err != nil {
		return fmt.Errorf("register %s: %w", serviceName, err)
	}
	return nil
}

func (r *Registry) Deregister(ctx context.Context, instanceID, serviceName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.client.Agent().ServiceDeregister(instanceID); err != nil {
		return fmt.Errorf("deregister %s: %w", serviceName, err)
	}
	return nil
}

func (r *Registry) ReportHealthyState(instanceID, serviceName string) error {
	if err := r.client.Agent().UpdateTTL(checkID(instanceID), serviceName+" alive", api.HealthPassing); err != nil {
		return fmt.Errorf("report health of %s: %w", serviceName, err)
	}
	return nil
}

// KeepAlive reports health every interval until ctx is done.
func (r *Registry) KeepAlive(ctx context.Context, instanceID, serviceName string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := r.ReportHealthyState(instanceID, serviceName); err != nil {
			log.Println("⚠️ Failed to report healthy state:", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ServiceAddresses lists http base URLs of the healthy instances of serviceName.
func (r *Registry) ServiceAddresses(ctx context.Context, serviceName string) ([]string, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := r.client.Health().Service(serviceName, "", true, q)
	if err != nil {
		return nil, fmt.Errorf("lookup %s in consul: %w", serviceName, err)
	}
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, BaseURL(e.Service.Address, e.Service.Port))
	}
	return urls, nil
}

func BaseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Lookup is the part of Registry a Resolver needs.
type Lookup interface {
	ServiceAddresses(ctx context.Context, serviceName string) ([]string, error)
}

// Resolver finds a service URL, caching hits in Redis so Consul is not asked on every request.
type Resolver struct {
	lookup Lookup
	cache  *redis.Client
	ttl    time.Duration
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(lookup Lookup, cache *redis.Client, ttl time.Duration) *Resolver {
	return &Resolver{lookup: lookup, cache: cache, ttl: ttl}
}

func (r *Resolver) URL(ctx context.Context, serviceName, cacheKey string) (string, error) {
	if r.cache != nil {
		if url, err := r.cache.Get(ctx, cacheKey).Result(); err == nil && url != "" {
			return url, nil
		}
	}

	urls, err := r.lookup.ServiceAddresses(ctx, serviceName)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, serviceName)
	}

	url := urls[0]
	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, url, r.ttl).Err(); err != nil {
			log.Println("⚠️ Failed to cache service URL in Redis:", err)
		}
	}
	return url, nil
}

// Forget drops a cached URL, e.g. after the instance stopped answering.
func (r *Resolver) Forget(ctx context.Context, cacheKey string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, cacheKey).Err(); err != nil {
		log.Println("⚠️ Failed to drop cached service URL:", err)
	}
}
