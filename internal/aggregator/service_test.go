package aggregator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/parser/orchestrator"
	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/notify"
	"github.com/Vodeneev/ncaafbet/internal/pkg/performance"
	"github.com/Vodeneev/ncaafbet/internal/pkg/storage"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeAcquirer struct {
	res   orchestrator.Result
	err   error
	calls int
}

func (f *fakeAcquirer) Acquire(ctx context.Context) (orchestrator.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeSchedule struct {
	games []models.ScheduledGame
	err   error
}

func (f *fakeSchedule) Fetch(ctx context.Context, days int) ([]models.ScheduledGame, error) {
	return f.games, f.err
}

type fakeNotifier struct {
	cycles   []string
	failures []notify.Failure
}

func (f *fakeNotifier) NotifyExhausted(cycleID string, failures []notify.Failure) bool {
	f.cycles = append(f.cycles, cycleID)
	f.failures = failures
	return true
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "ncaaf.db"), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(t *testing.T, d Deps) *Service {
	t.Helper()
	if d.Store == nil {
		d.Store = newTestStore(t)
	}
	d.Location = time.UTC
	svc := NewService(d)
	svc.now = func() time.Time { return testNow }
	n := 0
	svc.newID = func() string {
		n++
		return "cycle-" + string(rune('0'+n))
	}
	return svc
}

func gameline(source, day, home, away string, homeML int) models.Gameline {
	return models.Gameline{
		Source: source, GameDay: day, StartTime: "7:00 PM", HomeTeam: home, AwayTeam: away,
		Odds: models.Odds{HomeMoneyline: models.IntPtr(homeML), AwayMoneyline: models.IntPtr(-homeML)},
	}
}

func TestService_Acquire_UsesCache(t *testing.T) {
	acq := &fakeAcquirer{res: orchestrator.Result{
		SourceID:  "espn_api",
		Gamelines: []models.Gameline{gameline("espn_api", "2026-10-17", "Alabama", "Tennessee", -200)},
	}}
	mem := cache.NewMemory(5*time.Minute, func() time.Time { return testNow })
	svc := newTestService(t, Deps{Acquirer: acq, Cache: mem})
	ctx := context.Background()

	first, err := svc.Acquire(ctx, true)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if first.Snapshot.Count() != 1 || len(first.Snapshot["espn_api"]) != 1 {
		t.Fatalf("snapshot = %+v", first.Snapshot)
	}

	second, err := svc.Acquire(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if acq.calls != 1 {
		t.Errorf("cached request hit the sources, calls = %d", acq.calls)
	}
	if second.CycleID != first.CycleID {
		t.Errorf("cached entry cycle = %q, want %q", second.CycleID, first.CycleID)
	}

	if _, err := svc.AcquireGamelines(ctx, false); err != nil {
		t.Fatal(err)
	}
	if acq.calls != 2 {
		t.Errorf("cache=false must bypass the cache, calls = %d", acq.calls)
	}
}

func TestService_Acquire_Exhausted(t *testing.T) {
	acq := &fakeAcquirer{res: orchestrator.Result{Attempts: []orchestrator.Attempt{
		{Source: "espn_api", Outcome: performance.OutcomeError, Err: errors.New("status 503")},
		{Source: "covers", Outcome: performance.OutcomeInvalid, Lines: 12},
	}}}
	mem := cache.NewMemory(5*time.Minute, func() time.Time { return testNow })
	notifier := &fakeNotifier{}
	svc := newTestService(t, Deps{Acquirer: acq, Cache: mem, Notifier: notifier})

	snap, err := svc.AcquireGamelines(context.Background(), true)
	if err != nil {
		t.Fatalf("exhausted sources must not error, got %v", err)
	}
	if snap == nil || snap.Count() != 0 {
		t.Errorf("snapshot = %+v, want empty", snap)
	}
	if len(notifier.cycles) != 1 || len(notifier.failures) != 2 || notifier.failures[0].Reason != "status 503" {
		t.Errorf("notifier = %+v", notifier)
	}
	if _, ok, _ := mem.Get(context.Background()); ok {
		t.Error("empty result must not be cached")
	}
}

func TestService_Acquire_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := newTestService(t, Deps{Acquirer: &fakeAcquirer{err: storeErr}})

	if _, err := svc.AcquireGamelines(context.Background(), false); !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

// cancellingSource stands in for a request whose client went away mid-fetch.
type cancellingSource struct {
	cancel context.CancelFunc
}

func (s cancellingSource) Name() string       { return "espn_api" }
func (s cancellingSource) Kind() sources.Kind { return sources.KindAPI }
func (s cancellingSource) Priority() int      { return 1 }
func (s cancellingSource) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	s.cancel()
	return nil, ctx.Err()
}

func TestService_Acquire_CancelledIsNotExhausted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t)
	backup := &countingSource{name: "covers", lines: []models.Gameline{gameline("covers", "2026-10-17", "Alabama", "Tennessee", -200)}}
	orch := orchestrator.New([]sources.Source{cancellingSource{cancel: cancel}, backup}, store,
		orchestrator.Options{Tracker: performance.NewTracker()})
	notifier := &fakeNotifier{}
	svc := newTestService(t, Deps{Acquirer: orch, Store: store, Notifier: notifier})

	if _, err := svc.AcquireGamelines(ctx, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(notifier.cycles) != 0 {
		t.Errorf("cancellation must not alert the operator, got %d alerts", len(notifier.cycles))
	}
	if backup.calls != 0 {
		t.Errorf("backup source called %d times after cancellation", backup.calls)
	}
}

type countingSource struct {
	name  string
	lines []models.Gameline
	calls int
}

func (s *countingSource) Name() string       { return s.name }
func (s *countingSource) Kind() sources.Kind { return sources.KindScrape }
func (s *countingSource) Priority() int      { return 1 }
func (s *countingSource) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	s.calls++
	return s.lines, nil
}

func TestService_Acquire_PurgesElapsed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.UpsertGameline(ctx, gameline("espn_api", "2026-10-10", "Old", "Game", -150)); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, Deps{Acquirer: &fakeAcquirer{}, Store: store})

	if _, err := svc.AcquireGamelines(ctx, false); err != nil {
		t.Fatal(err)
	}
	lines, _ := svc.ReadGamelines(ctx, "")
	if len(lines) != 0 {
		t.Errorf("elapsed gameline survived the cycle: %+v", lines)
	}
}

func TestService_UpsertGameline(t *testing.T) {
	sched := &fakeSchedule{games: []models.ScheduledGame{
		{GameDay: "2026-10-17", StartTime: "3:30 PM", HomeTeam: "Ole Miss", AwayTeam: "LSU"},
		{GameDay: "2026-10-18", StartTime: "TBD", HomeTeam: "Georgia", AwayTeam: "Florida"},
	}}
	svc := newTestService(t, Deps{Acquirer: &fakeAcquirer{}, Schedule: sched})
	ctx := context.Background()

	if _, err := svc.RefreshEvents(ctx, 7); err != nil {
		t.Fatalf("RefreshEvents() error = %v", err)
	}
	tbd, err := svc.GetUpcomingTBDEvents(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbd) != 2 {
		t.Fatalf("got %d TBD events, want 2", len(tbd))
	}

	err = svc.UpsertGameline(ctx, "manual", map[string]string{
		"game_day":       "2026-10-17",
		"home_team":      "Mississippi Rebels",
		"away_team":      "LSU",
		"home_moneyline": "-150",
		"away_moneyline": "+130",
		"home_spread":    "3",
	})
	if err != nil {
		t.Fatalf("UpsertGameline() error = %v", err)
	}

	stored, _ := svc.ReadGamelines(ctx, "manual")
	if len(stored) != 1 || stored[0].HomeTeam != "Ole Miss" {
		t.Fatalf("stored = %+v", stored)
	}
	if stored[0].HomeSpread.Decimal.String() != "-3" {
		t.Errorf("favorite home spread = %s, want -3", stored[0].HomeSpread.Decimal)
	}

	tbd, _ = svc.GetUpcomingTBDEvents(ctx, 7)
	if len(tbd) != 1 || tbd[0].HomeTeam != "Georgia" {
		t.Errorf("manual entry should open its event, TBD = %+v", tbd)
	}
}

func TestService_UpsertGameline_Invalid(t *testing.T) {
	svc := newTestService(t, Deps{Acquirer: &fakeAcquirer{}})

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{name: "missing teams", fields: map[string]string{"game_day": "2026-10-17"}},
		{name: "bad date", fields: map[string]string{"game_day": "17/10", "home_team": "A", "away_team": "B"}},
		{name: "bad odds", fields: map[string]string{"game_day": "2026-10-17", "home_team": "A", "away_team": "B", "home_moneyline": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpsertGameline(context.Background(), "manual", tt.fields)
			if !errors.Is(err, validation.ErrInvalidGameline) {
				t.Errorf("error = %v, want ErrInvalidGameline", err)
			}
		})
	}
}

func TestService_GetSchedule(t *testing.T) {
	svc := newTestService(t, Deps{Acquirer: &fakeAcquirer{}})
	if _, err := svc.GetSchedule(context.Background(), 7); err == nil {
		t.Error("expected error without a schedule source")
	}

	sched := &fakeSchedule{err: errors.New("espn down")}
	svc = newTestService(t, Deps{Acquirer: &fakeAcquirer{}, Schedule: sched})
	if _, err := svc.GetSchedule(context.Background(), 7); err == nil {
		t.Error("expected schedule error")
	}
}

func TestService_Refresh(t *testing.T) {
	acq := &fakeAcquirer{res: orchestrator.Result{
		SourceID:  "espn_api",
		Gamelines: []models.Gameline{gameline("espn_api", "2026-10-17", "Ole Miss", "LSU", -150)},
	}}
	sched := &fakeSchedule{games: []models.ScheduledGame{
		{GameDay: "2026-10-17", StartTime: "7:00 PM", HomeTeam: "Ole Miss", AwayTeam: "LSU"},
	}}
	store := newTestStore(t)
	svc := newTestService(t, Deps{Acquirer: acq, Store: store, Schedule: sched})
	ctx := context.Background()

	// the fake acquirer does not write, so store what the orchestrator would have
	if err := store.UpsertGameline(ctx, acq.res.Gamelines[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	events, err := store.ReadEvents(ctx, "2026-10-15", "2026-10-21", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Status != models.EventStatusOpen || events[0].Source != "espn_api" {
		t.Errorf("events = %+v", events)
	}
}
