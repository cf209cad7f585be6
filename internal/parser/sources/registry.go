package sources

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
)

// Factory builds a source from its config entry. loc is the zone game days
// and start times are rendered in.
type Factory func(cfg config.SourceConfig, loc *time.Location) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(typeName string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(typeName))
	if n == "" {
		panic("sources: empty name in Register")
	}
	if f == nil {
		panic("sources: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("sources: duplicate registration for " + n)
	}
	registry[n] = f
}

func FactoryByName(typeName string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(typeName))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build instantiates every enabled source entry.
func Build(cfgs []config.SourceConfig, loc *time.Location) ([]Source, error) {
	var out []Source
	for _, sc := range cfgs {
		if sc.Disabled {
			continue
		}
		f, ok := FactoryByName(sc.Type)
		if !ok {
			return nil, fmt.Errorf("source %q: unknown type %q (available: %v)", sc.Name, sc.Type, AvailableNames())
		}
		src, err := f(sc, loc)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		out = append(out, src)
	}
	return out, nil
}
