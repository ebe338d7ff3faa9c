package consul

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLookup struct {
	urls  []string
	err   error
	calls int
}

func (f *fakeLookup) ServiceAddresses(ctx context.Context, serviceName string) ([]string, error) {
	f.calls++
	return f.urls, f.err
}

func TestResolverPicksFirstHealthy(t *testing.T) {
	l := &fakeLookup{urls: []string{"http://10.0.0.2:8081", "http://10.0.0.3:8081"}}
	r := NewResolver(l, nil, time.Minute)
	url, err := r.URL(context.Background(), "simulator", "simulator_url")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://10.0.0.2:8081" {
		t.Fatalf("url = %s", url)
	}
}

func TestResolverNotFound(t *testing.T) {
	r := NewResolver(&fakeLookup{}, nil, time.Minute)
	if _, err := r.URL(context.Background(), "simulator", "simulator_url"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("want ErrServiceNotFound, got %v", err)
	}
}

func TestResolverPropagatesLookupError(t *testing.T) {
	boom := errors.New("agent down")
	r := NewResolver(&fakeLookup{err: boom}, nil, time.Minute)
	if _, err := r.URL(context.Background(), "simulator", "simulator_url"); !errors.Is(err, boom) {
		t.Fatalf("want lookup error, got %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	if got := BaseURL("simulator", 8081); got != "http://simulator:8081" {
		t.Fatalf("BaseURL = %s", got)
	}
	if got := BaseURL("::1", 80); got != "http://[::1]:80" {
		t.Fatalf("BaseURL = %s", got)
	}
}

func TestRegisterRejectsBadAddress(t *testing.T) {
	r, err := NewRegistry("localhost:8500")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := r.Register(context.Background(), "id", "simulator", "no-port"); err == nil {
		t.Fatal("expected address error")
	}
	if err := r.Register(context.Background(), "id", "simulator", "host:http"); err == nil {
		t.Fatal("expected port error")
	}
}
