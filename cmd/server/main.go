package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/httpapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dist, err := buildDistanceMatrix(cfg)
	if err != nil {
		log.Fatalf("Failed to build distance matrix: %v", err)
	}

	h := httpapi.NewHandlers(cfg, dist, nil)
	router := h.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.APIHost + ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Scheduling server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// buildDistanceMatrix wires Redis-backed precomputation when REDIS_URL is
// configured, falling back to a Haversine-only matrix otherwise.
func buildDistanceMatrix(cfg *config.Config) (distancematrix.Lookup, error) {
	fallback := distancematrix.NewMatrix(nil, nil, cfg.HardMaxRadiusMiles)
	if cfg.RedisURL == "" {
		return fallback, nil
	}

	client, err := distancematrix.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	return distancematrix.NewRedisMatrix(client, "distance-matrix", fallback), nil
}
