// Package orchestrator picks the first usable source and persists its batch.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/parserutil"
	"github.com/Vodeneev/ncaafbet/internal/pkg/performance"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"
)

// Upserter is the write side of the gameline store.
type Upserter interface {
	UpsertGameline(ctx context.Context, g models.Gameline) error
}

// Options tune the orchestrator. Zero values disable the delay and the
// per-source timeout.
type Options struct {
	ScrapeDelay   time.Duration // pause between consecutive scrape sources
	SourceTimeout time.Duration
	Tracker       *performance.Tracker
}

// Result is the outcome of one acquisition. SourceID is empty when no
// source produced a valid batch.
type Result struct {
	SourceID  string
	Gamelines []models.Gameline
	Attempts  []Attempt
}

// Empty reports whether no source validated.
func (r Result) Empty() bool {
	return r.SourceID == ""
}

// Attempt describes one source call of a cycle.
type Attempt struct {
	Source  string
	Outcome performance.Outcome
	Lines   int
	Err     error
}

// Orchestrator tries sources API first, then scrape, by ascending priority.
type Orchestrator struct {
	api    []sources.Source
	scrape []sources.Source
	store  Upserter
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// New partitions srcs by kind and orders each group by priority. Equal
// priorities keep their configured order.
func New(srcs []sources.Source, store Upserter, opts Options) *Orchestrator {
	o := &Orchestrator{store: store, opts: opts, sleep: parserutil.Sleep}
	if o.opts.Tracker == nil {
		o.opts.Tracker = performance.GetTracker()
	}
	for _, s := range srcs {
		if s.Kind() == sources.KindAPI {
			o.api = append(o.api, s)
		} else {
			o.scrape = append(o.scrape, s)
		}
	}
	byPriority := func(group []sources.Source) {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Priority() < group[j].Priority() })
	}
	byPriority(o.api)
	byPriority(o.scrape)
	return o
}

// Order returns the source names in the order they are tried.
func (o *Orchestrator) Order() []string {
	names := make([]string, 0, len(o.api)+len(o.scrape))
	for _, s := range o.api {
		names = append(names, s.Name())
	}
	for _, s := range o.scrape {
		names = append(names, s.Name())
	}
	return names
}

// Acquire runs one fallback pass. The first batch that passes validation is
// upserted line by line and returned; later sources are not called. Source
// failures are logged and skipped. Exhausting every source is not an error
// and yields an empty Result. Store failures and cancellation of ctx are
// returned.
func (o *Orchestrator) Acquire(ctx context.Context) (Result, error) {
	start := time.Now()

	res, done, err := o.tryGroup(ctx, o.api, Result{}, false)
	if !done && err == nil {
		res, done, err = o.tryGroup(ctx, o.scrape, res, true)
	}

	o.opts.Tracker.RecordCycle(time.Since(start), !done, err)
	if err != nil {
		return Result{Attempts: res.Attempts}, err
	}
	if !done {
		slog.Warn("No source produced usable gamelines", "sources_tried", len(res.Attempts))
	}
	return res, nil
}

func (o *Orchestrator) tryGroup(ctx context.Context, group []sources.Source, res Result, spaced bool) (Result, bool, error) {
	for i, src := range group {
		if spaced && i > 0 {
			if err := o.sleep(ctx, o.opts.ScrapeDelay); err != nil {
				return res, false, interrupted(ctx, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return res, false, interrupted(ctx, err)
		}

		lines, attempt := o.fetch(ctx, src)
		res.Attempts = append(res.Attempts, attempt)
		// a source failing because the caller went away says nothing about the source
		if err := ctx.Err(); err != nil {
			return res, false, interrupted(ctx, err)
		}
		if attempt.Outcome != performance.OutcomeValid {
			continue
		}

		for _, g := range lines {
			if err := o.store.UpsertGameline(ctx, g); err != nil {
				return res, false, fmt.Errorf("store gamelines from %s: %w", src.Name(), err)
			}
		}
		slog.Info("Source accepted", "source", src.Name(), "kind", src.Kind(), "gamelines", len(lines))
		res.SourceID = src.Name()
		res.Gamelines = dedupe(lines)
		return res, true, nil
	}
	return res, false, nil
}

func interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("acquisition interrupted: %w", err)
}

// dedupe keeps one line per key. A later line replaces an earlier one in
// place, matching what the upserts left in the store.
func dedupe(lines []models.Gameline) []models.Gameline {
	out := make([]models.Gameline, 0, len(lines))
	seen := make(map[models.GamelineKey]int, len(lines))
	for _, g := range lines {
		if i, ok := seen[g.Key()]; ok {
			out[i] = g
			continue
		}
		seen[g.Key()] = len(out)
		out = append(out, g)
	}
	return out
}

func (o *Orchestrator) fetch(ctx context.Context, src sources.Source) ([]models.Gameline, Attempt) {
	fetchCtx, cancel := parserutil.CreateCycleContext(ctx, o.opts.SourceTimeout)
	defer cancel()

	start := time.Now()
	lines, err := src.FetchGamelines(fetchCtx)
	elapsed := time.Since(start)

	attempt := Attempt{Source: src.Name(), Lines: len(lines), Err: err}
	switch {
	case err != nil:
		attempt.Outcome = performance.OutcomeError
		slog.Warn("Source failed", "source", src.Name(), "kind", src.Kind(), "duration", elapsed, "error", err)
	case !validation.IsValid(lines):
		attempt.Outcome = performance.OutcomeInvalid
		slog.Info("Source returned unusable batch", "source", src.Name(), "gamelines", len(lines), "duration", elapsed)
	default:
		attempt.Outcome = performance.OutcomeValid
	}
	o.opts.Tracker.RecordAttempt(src.Name(), attempt.Outcome, len(lines), elapsed, err)
	return lines, attempt
}
