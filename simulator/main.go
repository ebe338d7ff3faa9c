package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"solar-orrery/pkg/catalog"
	"solar-orrery/pkg/config"
	"solar-orrery/pkg/discovery/consul"
	discovery "solar-orrery/pkg/registry"
	"solar-orrery/simulator/handler"
	"solar-orrery/simulator/metrics"
	"solar-orrery/simulator/model"
	"solar-orrery/simulator/publish"
	"solar-orrery/simulator/simulation"
)

const serviceName = "simulator"

type Config struct {
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisAttempts int           `env:"REDIS_CONNECT_ATTEMPTS" envDefault:"5"`
	ConsulAddr    string        `env:"CONSUL_ADDR" envDefault:"localhost:8500"`
	CatalogPath   string        `env:"CATALOG_DB"`
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`
	MinSpeed      float64       `env:"MIN_SPEED" envDefault:"0.001"`
	MaxSpeed      float64       `env:"MAX_SPEED" envDefault:"0.05"`
	SpeedPolicy   string        `env:"SPEED_POLICY" envDefault:"clamp"`
	IntentRate    float64       `env:"INTENT_RATE" envDefault:"20"`
	IntentBurst   int           `env:"INTENT_BURST" envDefault:"40"`
	FrameQueue    int           `env:"FRAME_QUEUE" envDefault:"64"`
}

func main() {
	var port int
	flag.IntVar(&port, "port", 8081, "API handler port")
	flag.Parse()

	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🚀 Starting simulator service on port %d", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1️⃣ Frame outputs first: without them there is nothing to drive
	redisClient, err := connectRedis(ctx, cfg.RedisAddr, cfg.RedisAttempts)
	if err != nil {
		log.Fatalf("❌ Frame channel unavailable, aborting: %v", err)
	}
	defer redisClient.Close()

	publisher := publish.NewPublisher(redisClient, cfg.FrameQueue)
	hub := handler.NewHub()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	frames := simulation.NewFrameBuffer(publisher, hub, collector)

	// 2️⃣ Orbit state
	planets, err := loadPlanets(ctx, cfg.CatalogPath)
	if err != nil {
		log.Fatalf("❌ Failed to load bodies: %v", err)
	}
	policy, err := simulation.ParsePolicy(cfg.SpeedPolicy)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	store, err := simulation.NewStore(planets,
		simulation.Limits{Min: cfg.MinSpeed, Max: cfg.MaxSpeed},
		simulation.WithPolicy(policy))
	if err != nil {
		log.Fatalf("❌ Failed to initialize orbits: %v", err)
	}
	driver, err := simulation.NewDriver(store, frames)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	frames.Attach(driver.Paused)
	collector.ObserveSpeeds(store.Snapshot())
	log.Printf("🪐 %d bodies registered, speed range [%g, %g], policy %s",
		store.Len(), cfg.MinSpeed, cfg.MaxSpeed, policy)

	// 3️⃣ Register with Consul using container hostname
	registry, err := consul.NewRegistry(cfg.ConsulAddr)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Consul: %v", err)
	}
	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("❌ Failed to get container hostname: %v", err)
	}
	instanceID := discovery.GenerateInstanceID(serviceName)
	serviceAddr := fmt.Sprintf("%s:%d", hostname, port)
	if err := registry.Register(ctx, instanceID, serviceName, serviceAddr); err != nil {
		log.Fatalf("❌ Failed to register in Consul: %v", err)
	}
	defer registry.Deregister(context.Background(), instanceID, serviceName)

	// 4️⃣ Health reporting, frame publishing and the frame clock
	go registry.KeepAlive(ctx, instanceID, serviceName, 2*time.Second)
	go publisher.Run(ctx)
	go driver.Run(ctx, cfg.FrameInterval)

	// 5️⃣ HTTP handlers
	h := handler.New(driver, frames,
		handler.WithRecorder(collector),
		handler.WithNotifier(publisher),
		handler.WithRateLimiter(handler.NewIPRateLimiter(rate.Limit(cfg.IntentRate), cfg.IntentBurst)),
		handler.WithStream(hub),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))
	mux.Handle("/", h.Routes())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("⚠️ Failed to shut down HTTP server:", err)
		}
	}()

	log.Printf("🌐 Simulator HTTP server listening on port %d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("🛑 Simulator stopped after %d ticks (%d frames dropped)", driver.Ticks(), publisher.Dropped())
}

// connectRedis retries a bounded number of times, then gives up.
func connectRedis(ctx context.Context, addr string, attempts int) (*redis.Client, error) {
	if attempts < 1 {
		attempts = 1
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	var err error
	for i := 0; i < attempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Println("⚠️ Redis not ready, retrying in 2s...")
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	client.Close()
	return nil, fmt.Errorf("redis at %s: %w", addr, err)
}

func loadPlanets(ctx context.Context, path string) ([]model.Planet, error) {
	if path == "" {
		return simulation.DefaultPlanets(), nil
	}

	cat, err := catalog.Open(path)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	if seeded, err := cat.Seed(ctx, simulation.DefaultPlanets()); err != nil {
		return nil, err
	} else if seeded {
		log.Printf("📦 Seeded catalog %s with the default planets", path)
	}
	return cat.List(ctx)
}
