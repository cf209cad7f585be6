// fetch-gamelines runs one configured source once and prints what it returned.
// Usage:
//
//	go run ./cmd/fetch-gamelines -source consensus
//	go run ./cmd/fetch-gamelines -source covers -store
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	pkgconfig "github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/storage"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"

	_ "github.com/Vodeneev/ncaafbet/internal/parser/sources/all"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fetch-gamelines failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	name := flag.String("source", "", "Source name from the config (required)")
	store := flag.Bool("store", false, "Upsert the lines into storage when the batch is valid")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall timeout")
	flag.Parse()

	if *name == "" {
		return fmt.Errorf("-source is required")
	}

	cfg, err := pkgconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loc := cfg.Location()

	var selected []pkgconfig.SourceConfig
	for _, s := range cfg.Sources {
		if s.Name == *name {
			s.Disabled = false
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("source %q is not in %s", *name, *configPath)
	}
	srcs, err := sources.Build(selected, loc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	lines, err := srcs[0].FetchGamelines(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", *name, err)
	}
	valid := validation.IsValid(lines)
	slog.Info("Fetched gamelines", "source", *name, "count", len(lines), "valid", valid, "duration", time.Since(start))

	decimal.MarshalJSONWithoutQuotes = true
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lines); err != nil {
		return err
	}

	if !*store {
		return nil
	}
	if !valid {
		return fmt.Errorf("batch from %s is not valid, nothing stored", *name)
	}
	st, err := storage.Open(cfg.Storage, loc)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, g := range lines {
		if err := st.UpsertGameline(ctx, g); err != nil {
			return err
		}
	}
	slog.Info("Stored gamelines", "source", *name, "count", len(lines))
	return nil
}
