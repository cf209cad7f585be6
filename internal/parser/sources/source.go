package sources

import (
	"context"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Kind tells the orchestrator which group a source is tried in.
type Kind string

const (
	KindAPI    Kind = "api"
	KindScrape Kind = "scrape"
)

// Source fetches gamelines from one upstream and returns them normalized.
// Transport failures and non-2xx responses are returned as errors; malformed
// rows are skipped inside the source.
type Source interface {
	Name() string
	Kind() Kind
	Priority() int
	FetchGamelines(ctx context.Context) ([]models.Gameline, error)
}

// Base holds the fields every source shares.
type Base struct {
	name     string
	kind     Kind
	priority int
}

// NewBase creates a base for a source of the given kind.
func NewBase(cfg config.SourceConfig, kind Kind) Base {
	return Base{name: cfg.Name, kind: kind, priority: cfg.Priority}
}

func (b Base) Name() string  { return b.name }
func (b Base) Kind() Kind    { return b.kind }
func (b Base) Priority() int { return b.priority }

// Finish stamps the source name and normalizes every line.
func (b Base) Finish(lines []models.Gameline) []models.Gameline {
	out := make([]models.Gameline, 0, len(lines))
	for _, g := range lines {
		g.Source = b.name
		out = append(out, models.Normalize(g))
	}
	return out
}
