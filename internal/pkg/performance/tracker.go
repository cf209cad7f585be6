package performance

import (
	"sort"
	"sync"
	"time"
)

// Outcome of one source attempt.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"   // batch passed validation and was stored
	OutcomeInvalid Outcome = "invalid" // fetched but failed validation
	OutcomeError   Outcome = "error"   // transport or decode failure
)

// Tracker collects per-source fetch statistics and cycle timings.
type Tracker struct {
	mu sync.RWMutex

	TotalCycles    int
	EmptyCycles    int // cycles where no source validated
	TotalDuration  time.Duration
	LastCycleAt    time.Time
	LastCycleError string

	sources map[string]*sourceStats
}

type sourceStats struct {
	attempts      int
	valid         int
	invalid       int
	errors        int
	totalDuration time.Duration
	lastAttempt   time.Time
	lastOutcome   Outcome
	lastError     string
	lastLines     int
}

var globalTracker = NewTracker()

// GetTracker returns the global tracker
func GetTracker() *Tracker {
	return globalTracker
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sources: make(map[string]*sourceStats)}
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalCycles = 0
	t.EmptyCycles = 0
	t.TotalDuration = 0
	t.LastCycleAt = time.Time{}
	t.LastCycleError = ""
	t.sources = make(map[string]*sourceStats)
}

// RecordAttempt records one source fetch.
func (t *Tracker) RecordAttempt(source string, outcome Outcome, lines int, duration time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sources[source]
	if !ok {
		s = &sourceStats{}
		t.sources[source] = s
	}
	s.attempts++
	s.totalDuration += duration
	s.lastAttempt = time.Now()
	s.lastOutcome = outcome
	s.lastLines = lines
	s.lastError = ""
	switch outcome {
	case OutcomeValid:
		s.valid++
	case OutcomeInvalid:
		s.invalid++
	case OutcomeError:
		s.errors++
	}
	if err != nil {
		s.lastError = err.Error()
	}
}

// RecordCycle records one completed orchestrator run.
func (t *Tracker) RecordCycle(duration time.Duration, empty bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalCycles++
	t.TotalDuration += duration
	t.LastCycleAt = time.Now()
	t.LastCycleError = ""
	if empty {
		t.EmptyCycles++
	}
	if err != nil {
		t.LastCycleError = err.Error()
	}
}

// MetricsResponse represents the JSON response structure for /metrics endpoint
type MetricsResponse struct {
	Overall struct {
		TotalCycles    int    `json:"total_cycles"`
		EmptyCycles    int    `json:"empty_cycles"`
		AvgCycleTime   string `json:"avg_cycle_time"`
		LastCycleAt    string `json:"last_cycle_at,omitempty"`
		LastCycleError string `json:"last_cycle_error,omitempty"`
	} `json:"overall"`

	Sources []SourceMetrics `json:"sources"`
}

type SourceMetrics struct {
	Source      string  `json:"source"`
	Attempts    int     `json:"attempts"`
	Valid       int     `json:"valid"`
	Invalid     int     `json:"invalid"`
	Errors      int     `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
	AvgTime     string  `json:"avg_time"`
	LastAttempt string  `json:"last_attempt"`
	LastOutcome Outcome `json:"last_outcome"`
	LastLines   int     `json:"last_lines"`
	LastError   string  `json:"last_error,omitempty"`
}

// GetMetrics returns structured metrics for JSON API
func (t *Tracker) GetMetrics() MetricsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp MetricsResponse
	resp.Overall.TotalCycles = t.TotalCycles
	resp.Overall.EmptyCycles = t.EmptyCycles
	resp.Overall.LastCycleError = t.LastCycleError
	if t.TotalCycles > 0 {
		resp.Overall.AvgCycleTime = (t.TotalDuration / time.Duration(t.TotalCycles)).String()
	}
	if !t.LastCycleAt.IsZero() {
		resp.Overall.LastCycleAt = t.LastCycleAt.Format(time.RFC3339)
	}

	resp.Sources = make([]SourceMetrics, 0, len(t.sources))
	for name, s := range t.sources {
		m := SourceMetrics{
			Source:      name,
			Attempts:    s.attempts,
			Valid:       s.valid,
			Invalid:     s.invalid,
			Errors:      s.errors,
			LastAttempt: s.lastAttempt.Format(time.RFC3339),
			LastOutcome: s.lastOutcome,
			LastLines:   s.lastLines,
			LastError:   s.lastError,
		}
		if s.attempts > 0 {
			m.SuccessRate = float64(s.valid) / float64(s.attempts) * 100
			m.AvgTime = (s.totalDuration / time.Duration(s.attempts)).String()
		}
		resp.Sources = append(resp.Sources, m)
	}
	sort.Slice(resp.Sources, func(i, j int) bool { return resp.Sources[i].Source < resp.Sources[j].Source })
	return resp
}
