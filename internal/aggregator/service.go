// Package aggregator runs acquisition cycles and serves stored gamelines and
// events to the HTTP layer.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/ncaafbet/internal/parser/orchestrator"
	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/notify"
	"github.com/Vodeneev/ncaafbet/internal/pkg/parserutil"
	"github.com/Vodeneev/ncaafbet/internal/pkg/storage"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"
	"github.com/Vodeneev/ncaafbet/internal/schedule"
)

// DefaultEventDays is the schedule window used when none is configured.
const DefaultEventDays = 7

// Acquirer runs one fallback pass over the sources.
type Acquirer interface {
	Acquire(ctx context.Context) (orchestrator.Result, error)
}

// ScheduleSource lists upcoming games without odds.
type ScheduleSource interface {
	Fetch(ctx context.Context, days int) ([]models.ScheduledGame, error)
}

// Notifier is told when a cycle found no usable source.
type Notifier interface {
	NotifyExhausted(cycleID string, failures []notify.Failure) bool
}

// Deps are the collaborators of a Service. Cache, Schedule and Notifier are
// optional.
type Deps struct {
	Acquirer  Acquirer
	Store     storage.Store
	Cache     cache.Cache
	Schedule  ScheduleSource
	Notifier  Notifier
	Location  *time.Location
	EventDays int
}

// Service serializes acquisition cycles and owns purging.
type Service struct {
	mu sync.Mutex // one cycle at a time

	acquirer  Acquirer
	store     storage.Store
	cache     cache.Cache
	schedule  ScheduleSource
	notifier  Notifier
	loc       *time.Location
	eventDays int

	now   func() time.Time
	newID func() string
}

func NewService(d Deps) *Service {
	s := &Service{
		acquirer:  d.Acquirer,
		store:     d.Store,
		cache:     d.Cache,
		schedule:  d.Schedule,
		notifier:  d.Notifier,
		loc:       d.Location,
		eventDays: d.EventDays,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.eventDays <= 0 {
		s.eventDays = DefaultEventDays
	}
	return s
}

// Acquire returns the cached snapshot when useCache is set and the entry is
// fresh. Otherwise it purges elapsed games, runs the sources and caches a
// non-empty result. Exhausted sources give an empty snapshot and no error.
func (s *Service) Acquire(ctx context.Context, useCache bool) (cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquire(ctx, useCache)
}

// AcquireGamelines is Acquire without the cache metadata.
func (s *Service) AcquireGamelines(ctx context.Context, useCache bool) (models.Snapshot, error) {
	e, err := s.Acquire(ctx, useCache)
	if err != nil {
		return nil, err
	}
	return e.Snapshot, nil
}

func (s *Service) acquire(ctx context.Context, useCache bool) (cache.Entry, error) {
	cycleID := s.newID()
	start := time.Now()
	parserutil.LogCycleStart(cycleID, useCache)

	if useCache && s.cache != nil {
		e, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			slog.Warn("Cache read failed, treating as miss", "cycle_id", cycleID, "error", err)
		case ok:
			slog.Info("Serving cached gamelines", "cycle_id", cycleID, "cached_cycle_id", e.CycleID, "captured_at", e.CapturedAt)
			return e, nil
		}
	}

	if _, err := s.purge(ctx); err != nil {
		return cache.Entry{}, err
	}

	res, err := s.acquirer.Acquire(ctx)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("acquire gamelines: %w", err)
	}

	entry := cache.Entry{CapturedAt: s.now(), CycleID: cycleID, Snapshot: models.Snapshot{}}
	if res.Empty() {
		if s.notifier != nil {
			s.notifier.NotifyExhausted(cycleID, failures(res.Attempts))
		}
		parserutil.LogCycleFinish(cycleID, "", 0, time.Since(start))
		return entry, nil
	}

	lines := append([]models.Gameline(nil), res.Gamelines...)
	models.SortGamelines(lines, s.loc)
	entry.Snapshot[res.SourceID] = lines

	if s.cache != nil {
		if err := s.cache.Put(ctx, cycleID, entry.Snapshot); err != nil {
			slog.Warn("Cache write failed", "cycle_id", cycleID, "error", err)
		}
	}
	parserutil.LogCycleFinish(cycleID, res.SourceID, len(lines), time.Since(start))
	return entry, nil
}

func failures(attempts []orchestrator.Attempt) []notify.Failure {
	out := make([]notify.Failure, 0, len(attempts))
	for _, a := range attempts {
		reason := string(a.Outcome)
		if a.Err != nil {
			reason = a.Err.Error()
		} else if a.Lines > 0 {
			reason = fmt.Sprintf("%s (%d lines)", a.Outcome, a.Lines)
		}
		out = append(out, notify.Failure{Source: a.Source, Reason: reason})
	}
	return out
}

// ReadGamelines returns the stored gamelines of source, or of every source
// when source is empty.
func (s *Service) ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error) {
	lines, err := s.store.ReadGamelines(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("read gamelines: %w", err)
	}
	return lines, nil
}

// UpsertGameline stores a manually entered gameline. Invalid input wraps
// validation.ErrInvalidGameline. A matching TBD event is opened right away.
func (s *Service) UpsertGameline(ctx context.Context, source string, fields map[string]string) error {
	g, err := validation.GamelineFromFields(source, fields)
	if err != nil {
		return err
	}
	if err := s.store.UpsertGameline(ctx, g); err != nil {
		return fmt.Errorf("store manual gameline: %w", err)
	}
	slog.Info("Manual gameline stored", "source", g.Source, "game_day", g.GameDay, "home", g.HomeTeam, "away", g.AwayTeam)

	events, err := s.store.ReadEvents(ctx, g.GameDay, g.GameDay, "")
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	for _, e := range events {
		if e.Matchup() != g.Matchup() {
			continue
		}
		merged := schedule.Merge([]models.ScheduledGame{{
			GameDay: e.GameDay, StartTime: e.StartTime, HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam,
		}}, []models.Gameline{g})
		if err := s.store.ReplaceEvents(ctx, merged); err != nil {
			return fmt.Errorf("open event: %w", err)
		}
	}
	return nil
}

// GetSchedule returns the games of the next days days.
func (s *Service) GetSchedule(ctx context.Context, days int) ([]models.ScheduledGame, error) {
	if s.schedule == nil {
		return nil, fmt.Errorf("schedule source not configured")
	}
	games, err := s.schedule.Fetch(ctx, s.days(days))
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return games, nil
}

// RefreshEvents rebuilds the events of the next days days from the schedule
// and the stored gamelines.
func (s *Service) RefreshEvents(ctx context.Context, days int) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshEvents(ctx, days)
}

func (s *Service) refreshEvents(ctx context.Context, days int) ([]models.Event, error) {
	scheduled, err := s.GetSchedule(ctx, days)
	if err != nil {
		return nil, err
	}
	from, to := s.window(days)
	stored, err := s.store.ReadGamelines(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("read gamelines: %w", err)
	}
	var lines []models.Gameline
	for _, g := range stored {
		if g.GameDay >= from && g.GameDay <= to {
			lines = append(lines, g)
		}
	}

	events := schedule.Merge(scheduled, lines)
	if err := s.store.ReplaceEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("store events: %w", err)
	}
	if _, err := s.store.PurgeElapsedEvents(ctx, s.now().In(s.loc)); err != nil {
		return nil, fmt.Errorf("purge events: %w", err)
	}
	slog.Info("Events refreshed", "scheduled", len(scheduled), "events", len(events), "days", s.days(days))
	return events, nil
}

// GetUpcomingTBDEvents returns events of the next days days that have no odds
// yet. Events are built from the schedule first when none are stored for the
// window.
func (s *Service) GetUpcomingTBDEvents(ctx context.Context, days int) ([]models.Event, error) {
	from, to := s.window(days)
	all, err := s.store.ReadEvents(ctx, from, to, "")
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if len(all) == 0 && s.schedule != nil {
		if _, err := s.RefreshEvents(ctx, days); err != nil {
			return nil, err
		}
	}

	events, err := s.store.ReadEvents(ctx, from, to, models.EventStatusTBD)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	now := s.now().In(s.loc)
	upcoming := events[:0]
	for _, e := range events {
		if !models.IsElapsed(e.GameDay, e.StartTime, now) {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming, nil
}

// Refresh runs a cache-bypassing cycle followed by an event rebuild under one
// lock. It backs the scheduled job and the refresh endpoint.
func (s *Service) Refresh(ctx context.Context) (cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.acquire(ctx, false)
	if err != nil {
		return entry, err
	}
	if s.schedule != nil {
		if _, err := s.refreshEvents(ctx, s.eventDays); err != nil {
			slog.Warn("Event refresh failed", "cycle_id", entry.CycleID, "error", err)
		}
	}
	return entry, nil
}

// Purge deletes elapsed gamelines and events and returns the rows removed.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(ctx)
}

func (s *Service) purge(ctx context.Context) (int64, error) {
	now := s.now().In(s.loc)
	lines, err := s.store.PurgeElapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("purge gamelines: %w", err)
	}
	events, err := s.store.PurgeElapsedEvents(ctx, now)
	if err != nil {
		return lines, fmt.Errorf("purge events: %w", err)
	}
	return lines + events, nil
}

func (s *Service) days(days int) int {
	if days <= 0 {
		return s.eventDays
	}
	return days
}

// window returns the first and last game day of the next days days.
func (s *Service) window(days int) (string, string) {
	today := s.now().In(s.loc)
	return today.Format(models.GameDayLayout), today.AddDate(0, 0, s.days(days)-1).Format(models.GameDayLayout)
}
