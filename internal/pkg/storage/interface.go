package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// GamelineStorage persists gamelines keyed by (source, game_day, home_team, away_team).
type GamelineStorage interface {
	// UpsertGameline inserts the gameline or overwrites the row with the same key.
	UpsertGameline(ctx context.Context, g models.Gameline) error

	// ReadGamelines returns the rows of one source (all sources when empty)
	// ordered by game day and start time, unparsable start times last.
	ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error)

	// PurgeElapsed deletes games that are over at now and returns the count.
	PurgeElapsed(ctx context.Context, now time.Time) (int64, error)

	// Close closes the database connection
	Close() error
}

// EventStorage persists the merged schedule keyed by (game_day, home_team, away_team).
type EventStorage interface {
	// ReplaceEvents upserts every event by its matchup.
	ReplaceEvents(ctx context.Context, events []models.Event) error

	// ReadEvents returns events with from <= game_day <= to. An empty status
	// matches any status.
	ReadEvents(ctx context.Context, from, to string, status models.EventStatus) ([]models.Event, error)

	// PurgeElapsedEvents applies the PurgeElapsed rule to events.
	PurgeElapsedEvents(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistent store.
type Store interface {
	GamelineStorage
	EventStorage
}

// Open builds the store selected by cfg.Driver. loc is used to order start
// times on read.
func Open(cfg config.StorageConfig, loc *time.Location) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := NewSQLiteStorage(cfg.Path, loc)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStorage(&cfg, loc)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// elapsedIDs returns the ids of candidates that are over at now.
func elapsedIDs[T any](candidates []T, now time.Time, key func(T) (id uint, gameDay, startTime string)) []uint {
	var ids []uint
	for _, c := range candidates {
		id, day, start := key(c)
		if models.IsElapsed(day, start, now) {
			ids = append(ids, id)
		}
	}
	return ids
}
