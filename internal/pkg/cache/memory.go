package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Memory is a process-local cache.
type Memory struct {
	mu    sync.RWMutex
	entry Entry
	ttl   time.Duration
	clock Clock
}

func NewMemory(ttl time.Duration, clock Clock) *Memory {
	if clock == nil {
		clock = time.Now
	}
	return &Memory{ttl: ttl, clock: clock}
}

func (m *Memory) Get(ctx context.Context) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !fresh(m.entry, m.ttl, m.clock()) {
		return Entry{}, false, nil
	}
	return m.entry, true, nil
}

func (m *Memory) Put(ctx context.Context, cycleID string, snapshot models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = Entry{CapturedAt: m.clock(), CycleID: cycleID, Snapshot: snapshot}
	return nil
}

func (m *Memory) Close() error { return nil }
