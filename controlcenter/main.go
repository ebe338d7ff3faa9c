package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"solar-orrery/pkg/config"
	"solar-orrery/pkg/discovery/consul"
	discovery "solar-orrery/pkg/registry"
)

const (
	serviceName    = "controller"
	simulatorKey   = "simulator_url"
	simulatorName  = "simulator"
	proxyTimeout   = 10 * time.Second
	resolverTTL    = 30 * time.Second
	healthInterval = 2 * time.Second
)

type Config struct {
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	ConsulAddr string `env:"CONSUL_ADDR" envDefault:"localhost:8500"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"./static"`
}

// resolver finds the base URL of a service.
type resolver interface {
	URL(ctx context.Context, serviceName, cacheKey string) (string, error)
	Forget(ctx context.Context, cacheKey string)
}

func main() {
	var port int
	flag.IntVar(&port, "port", 8080, "Controller port")
	flag.Parse()

	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🚀 Starting Controller service on port %d", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Connect to Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Register service with Consul ---
	registry, err := consul.NewRegistry(cfg.ConsulAddr)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Consul: %v", err)
	}
	hostname, _ := os.Hostname()
	instanceID := discovery.GenerateInstanceID(serviceName)
	serviceAddr := fmt.Sprintf("%s:%d", hostname, port)
	if err := registry.Register(ctx, instanceID, serviceName, serviceAddr); err != nil {
		log.Fatalf("❌ Failed to register in Consul: %v", err)
	}
	defer registry.Deregister(context.Background(), instanceID, serviceName)

	go registry.KeepAlive(ctx, instanceID, serviceName, healthInterval)

	res := consul.NewResolver(registry, redisClient, resolverTTL)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: routes(res, cfg.StaticDir)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("⚠️ Failed to shut down HTTP server:", err)
		}
	}()

	log.Printf("🌐 Controller running at http://localhost:%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func routes(res resolver, staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Browsers open the frame stream directly against the simulator.
	mux.HandleFunc("/simulator-url", func(w http.ResponseWriter, r *http.Request) {
		url, err := res.URL(r.Context(), simulatorName, simulatorKey)
		if err != nil {
			http.Error(w, "Simulator service not found", http.StatusServiceUnavailable)
			log.Println("❌", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"url": %q}`, url)
	})

	mux.Handle("/api/", http.StripPrefix("/api", proxyToService(res, simulatorName, simulatorKey)))
	return mux
}

// --------------------
// Proxy helpers
// --------------------
func proxyToService(res resolver, consulService, redisKey string) http.HandlerFunc {
	client := &http.Client{Timeout: proxyTimeout}
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL, err := res.URL(r.Context(), consulService, redisKey)
		if err != nil {
			http.Error(w, "Failed to locate service", http.StatusServiceUnavailable)
			log.Println("❌", err)
			return
		}

		target := strings.TrimRight(baseURL, "/") + r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
		if err != nil {
			http.Error(w, "Failed to build request", http.StatusInternalServerError)
			return
		}
		req.Header = r.Header.Clone()
		setForwardedFor(req.Header, r.RemoteAddr)

		resp, err := client.Do(req)
		if err != nil {
			// the cached instance may be gone; look it up again next time
			res.Forget(r.Context(), redisKey)
			http.Error(w, "Failed to reach service", http.StatusBadGateway)
			log.Println("❌", err)
			return
		}
		defer resp.Body.Close()

		for k, v := range resp.Header {
			w.Header()[k] = v
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Println("❌ Failed to forward response:", err)
		}
	}
}

// setForwardedFor appends the caller's host to any chain it already carries.
func setForwardedFor(h http.Header, remoteAddr string) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if prior := h.Get("X-Forwarded-For"); prior != "" {
		host = prior + ", " + host
	}
	h.Set("X-Forwarded-For", host)
}
