package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"solar-orrery/pkg/catalog"
	"solar-orrery/pkg/config"
	"solar-orrery/pkg/discovery/consul"
	discovery "solar-orrery/pkg/registry"
	"solar-orrery/simulator/model"
	"solar-orrery/simulator/simulation"
)

const (
	serviceName    = "catalog"
	catalogChannel = "orrery.catalog"
)

type Config struct {
	RedisAddr   string  `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	ConsulAddr  string  `env:"CONSUL_ADDR" envDefault:"localhost:8500"`
	CatalogPath string  `env:"CATALOG_DB" envDefault:"./database/bodies.db"`
	MinSpeed    float64 `env:"MIN_SPEED" envDefault:"0.001"`
	MaxSpeed    float64 `env:"MAX_SPEED" envDefault:"0.05"`
}

type server struct {
	catalog *catalog.Catalog
	redis   *redis.Client
	// base speeds outside these would stop the simulator from starting
	limits simulation.Limits
}

func main() {
	var port int
	flag.IntVar(&port, "port", 8084, "Catalog service port")
	flag.Parse()

	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🚀 Starting catalog service on port %d", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Open SQLite DB
	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cat.Close()
	if _, err := cat.Seed(ctx, simulation.DefaultPlanets()); err != nil {
		log.Fatal(err)
	}

	// Register service in Consul
	registry, err := consul.NewRegistry(cfg.ConsulAddr)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Consul: %v", err)
	}
	instanceID := discovery.GenerateInstanceID(serviceName)
	serviceAddr := fmt.Sprintf("%s:%d", serviceName, port)
	if err := registry.Register(ctx, instanceID, serviceName, serviceAddr); err != nil {
		log.Fatalf("❌ Failed to register service in Consul: %v", err)
	}
	defer registry.Deregister(context.Background(), instanceID, serviceName)

	go registry.KeepAlive(ctx, instanceID, serviceName, 2*time.Second)

	s := &server{
		catalog: cat,
		redis:   redisClient,
		limits:  simulation.Limits{Min: cfg.MinSpeed, Max: cfg.MaxSpeed},
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("⚠️ Failed to shut down HTTP server:", err)
		}
	}()

	log.Printf("📦 Catalog running at http://localhost:%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bodies", s.handleBodies)
	mux.HandleFunc("GET /bodies/{name}", s.handleGetBody)
	mux.HandleFunc("DELETE /bodies/{name}", s.handleDeleteBody)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *server) handleBodies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		planets, err := s.catalog.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		json.NewEncoder(w).Encode(planets)

	case http.MethodPost:
		var p model.Planet
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "Invalid JSON", 400)
			return
		}
		if p.Name == "" || p.Radius <= 0 || p.BaseSpeed <= 0 {
			http.Error(w, "name, radius and baseSpeed are required", 400)
			return
		}
		if p.BaseSpeed < s.limits.Min || p.BaseSpeed > s.limits.Max {
			http.Error(w, fmt.Sprintf("baseSpeed must be within [%g, %g]", s.limits.Min, s.limits.Max), 400)
			return
		}
		if err := s.catalog.Upsert(r.Context(), p); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		s.announce(r.Context(), "upsert", p.Name)
		json.NewEncoder(w).Encode(p)

	default:
		http.Error(w, "Method not allowed", 405)
	}
}

func (s *server) handleGetBody(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), r.PathValue("name"))
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "Not found", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	json.NewEncoder(w).Encode(p)
}

func (s *server) handleDeleteBody(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.catalog.Delete(r.Context(), name)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "Not found", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	s.announce(r.Context(), "delete", name)
	w.WriteHeader(204)
}

// announce tells running simulators the catalog changed; they pick it up on restart.
func (s *server) announce(ctx context.Context, kind, name string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Publish(ctx, catalogChannel, kind+":"+name).Err(); err != nil {
		log.Printf("❌ Failed to publish %s event: %v", catalogChannel, err)
	}
}
