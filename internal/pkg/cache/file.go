package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// File stores the entry as JSON on disk so it survives restarts. Writes go
// to a temp file that is renamed over the target.
type File struct {
	mu    sync.Mutex
	path  string
	ttl   time.Duration
	clock Clock
}

func NewFile(path string, ttl time.Duration, clock Clock) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("cache file path is required")
	}
	if clock == nil {
		clock = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &File{path: path, ttl: ttl, clock: clock}, nil
}

func (f *File) Get(ctx context.Context) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cache file: %w", err)
	}
	if !fresh(e, f.ttl, f.clock()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (f *File) Put(ctx context.Context, cycleID string, snapshot models.Snapshot) error {
	data, err := json.Marshal(Entry{CapturedAt: f.clock(), CycleID: cycleID, Snapshot: snapshot})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
