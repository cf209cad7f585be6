// clean-db deletes gamelines and events for games that are already over.
// Usage:
//
//	go run ./cmd/clean-db
//	# or against postgres
//	POSTGRES_DSN='host=... port=5432 user=... password=... dbname=... sslmode=require' ./clean-db -config configs/postgres.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	pkgconfig "github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/storage"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	flag.Parse()

	cfg, err := pkgconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.Open(cfg.Storage, cfg.Location())
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().In(cfg.Location())
	lines, err := store.PurgeElapsed(ctx, now)
	if err != nil {
		log.Fatalf("Failed to purge gamelines: %v", err)
	}
	log.Printf("gamelines: deleted %d elapsed rows", lines)

	events, err := store.PurgeElapsedEvents(ctx, now)
	if err != nil {
		log.Fatalf("Failed to purge events: %v", err)
	}
	log.Printf("events: deleted %d elapsed rows", events)
	log.Println("Done.")
}
