package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/aggregator"
	"github.com/Vodeneev/ncaafbet/internal/api"
	"github.com/Vodeneev/ncaafbet/internal/parser/orchestrator"
	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	pkgconfig "github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/logging"
	"github.com/Vodeneev/ncaafbet/internal/pkg/notify"
	"github.com/Vodeneev/ncaafbet/internal/pkg/storage"
	"github.com/Vodeneev/ncaafbet/internal/schedule"

	// Register all source adapters via init().
	_ "github.com/Vodeneev/ncaafbet/internal/parser/sources/all"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := parseFlags()

	cfg, err := pkgconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, logCloser, err := logging.SetupLogger(&cfg.Logging, "ncaaf-server")
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer logCloser.Close()
	}

	// spreads and totals go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	loc := cfg.Location()

	store, err := storage.Open(cfg.Storage, loc)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	snapshotCache, err := cache.New(cfg.Cache, nil)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer snapshotCache.Close()

	srcs, err := sources.Build(cfg.Sources, loc)
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}
	orch := orchestrator.New(srcs, store, orchestrator.Options{
		ScrapeDelay:   cfg.Aggregator.ScrapeDelay,
		SourceTimeout: cfg.Aggregator.SourceTimeout,
	})
	slog.Info("Sources configured", "order", orch.Order())

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram)
	if err != nil {
		slog.Warn("Telegram notifier disabled", "error", err)
	}
	defer notifier.Close()

	deps := aggregator.Deps{
		Acquirer:  orch,
		Store:     store,
		Cache:     snapshotCache,
		Schedule:  schedule.NewFetcher(cfg.Schedule, loc),
		Location:  loc,
		EventDays: cfg.Aggregator.EventDays,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	svc := aggregator.NewService(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Aggregator.RefreshCron != "" {
		c, err := startRefreshJob(ctx, svc, cfg.Aggregator.RefreshCron, loc)
		if err != nil {
			return err
		}
		defer func() { <-c.Stop().Done() }()
	}

	return api.Run(ctx, cfg.Server, api.NewRouter(svc, nil, cfg.Server.AllowedOrigins))
}

func parseFlags() string {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	var configPath string
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()
	return configPath
}

// startRefreshJob runs a full refresh on spec. Overlapping runs are skipped.
func startRefreshJob(ctx context.Context, svc *aggregator.Service, spec string, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		entry, err := svc.Refresh(ctx)
		if err != nil {
			slog.Error("Scheduled refresh failed", "error", err)
			return
		}
		slog.Info("Scheduled refresh done", "cycle_id", entry.CycleID, "gamelines", entry.Snapshot.Count())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid aggregator.refresh_cron %q: %w", spec, err)
	}
	c.Start()
	slog.Info("Scheduled refresh enabled", "cron", spec)
	return c, nil
}
