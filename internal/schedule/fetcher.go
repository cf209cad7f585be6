package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources/espn"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/httpclient"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Fetcher reads the upcoming schedule from the ESPN scoreboard, one request
// per calendar day.
type Fetcher struct {
	client *espn.Client
	loc    *time.Location
	now    func() time.Time
}

// NewFetcher creates a schedule fetcher. Game days are computed in loc.
func NewFetcher(cfg config.ScheduleConfig, loc *time.Location) *Fetcher {
	if loc == nil {
		loc = time.UTC
	}
	hc := httpclient.New(httpclient.Options{Timeout: cfg.Timeout, Accept: "application/json"})
	return &Fetcher{
		client: espn.NewClient(hc, cfg.URL, cfg.Groups),
		loc:    loc,
		now:    time.Now,
	}
}

// Fetch returns the games of today and the following days-1 days. A day that
// fails is logged and skipped unless every day fails or ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, days int) ([]models.ScheduledGame, error) {
	if days <= 0 {
		return nil, nil
	}
	today := f.now().In(f.loc)
	from := today.Format(models.GameDayLayout)
	to := today.AddDate(0, 0, days-1).Format(models.GameDayLayout)

	var (
		games   []models.ScheduledGame
		lastErr error
		failed  int
	)
	seen := make(map[models.Matchup]bool)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		sb, err := f.client.Scoreboard(ctx, day)
		if err != nil {
			failed++
			lastErr = err
			slog.Warn("Schedule: failed to fetch day", "day", day.Format(models.GameDayLayout), "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, g := range espn.ScheduledGames(sb, f.loc) {
			// the scoreboard for a date can include late games dated the next day
			if g.GameDay < from || g.GameDay > to || seen[g.Matchup()] {
				continue
			}
			seen[g.Matchup()] = true
			games = append(games, g)
		}
	}
	if failed == days || (lastErr != nil && ctx.Err() != nil) {
		return nil, fmt.Errorf("fetch schedule: %w", lastErr)
	}
	return games, nil
}
