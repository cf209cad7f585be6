// Package cache keeps the last aggregation snapshot for a short time so
// repeated requests do not hit upstream sources.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Entry is one cached aggregation result.
type Entry struct {
	CapturedAt time.Time       `json:"captured_at"`
	CycleID    string          `json:"cycle_id"`
	Snapshot   models.Snapshot `json:"snapshot"`
}

// Cache holds at most one Entry. Get reports a miss once the entry is older
// than the configured TTL.
type Cache interface {
	Get(ctx context.Context) (Entry, bool, error)
	Put(ctx context.Context, cycleID string, snapshot models.Snapshot) error
	Close() error
}

// Clock returns the current time. Tests replace it to move past the TTL.
type Clock func() time.Time

// New builds the backend selected by cfg.Backend. A nil clock means time.Now.
func New(cfg config.CacheConfig, clock Clock) (Cache, error) {
	if clock == nil {
		clock = time.Now
	}
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.TTL, clock), nil
	case "file":
		c, err := NewFile(cfg.Path, cfg.TTL, clock)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "redis":
		c, err := NewRedisFromURL(cfg.RedisURL, cfg.Key, cfg.TTL, clock)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// fresh reports whether e was captured less than ttl before now. A
// non-positive ttl disables caching.
func fresh(e Entry, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || e.CapturedAt.IsZero() {
		return false
	}
	return now.Sub(e.CapturedAt) < ttl
}
