// Package api exposes the aggregator over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/performance"
)

// Service is what the handlers need from the aggregator.
type Service interface {
	Acquire(ctx context.Context, useCache bool) (cache.Entry, error)
	Refresh(ctx context.Context) (cache.Entry, error)
	ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error)
	UpsertGameline(ctx context.Context, source string, fields map[string]string) error
	GetSchedule(ctx context.Context, days int) ([]models.ScheduledGame, error)
	GetUpcomingTBDEvents(ctx context.Context, days int) ([]models.Event, error)
}

// NewRouter wires the routes. A nil tracker means the global one.
func NewRouter(svc Service, tracker *performance.Tracker, allowedOrigins []string) http.Handler {
	if tracker == nil {
		tracker = performance.GetTracker()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	h := &handler{svc: svc, tracker: tracker}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", handlePing)
	r.Get("/health", handleHealth)
	r.Get("/metrics", h.handleMetrics)

	r.Route("/ncaaf", func(r chi.Router) {
		r.Get("/gamelines", h.handleGamelines)
		r.Get("/gamelines/stored", h.handleStoredGamelines)
		r.Post("/gamelines/{source}", h.handleUpsertGameline)
		r.Get("/schedule", h.handleSchedule)
		r.Get("/events/tbd", h.handleTBDEvents)
		r.Post("/refresh", h.handleRefresh)
	})
	return r
}

// Run serves handler until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	if cfg.Port <= 0 {
		return fmt.Errorf("port must be greater than 0")
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
