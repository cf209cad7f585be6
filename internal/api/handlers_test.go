package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/performance"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"
)

type fakeService struct {
	entry     cache.Entry
	err       error
	useCache  []bool
	refreshes int
	source    string
	fields    map[string]string
	upsertErr error
	days      int
	stored    []models.Gameline
	scheduled []models.ScheduledGame
	tbd       []models.Event
}

func (f *fakeService) Acquire(ctx context.Context, useCache bool) (cache.Entry, error) {
	f.useCache = append(f.useCache, useCache)
	return f.entry, f.err
}

func (f *fakeService) Refresh(ctx context.Context) (cache.Entry, error) {
	f.refreshes++
	return f.entry, f.err
}

func (f *fakeService) ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error) {
	f.source = source
	return f.stored, f.err
}

func (f *fakeService) UpsertGameline(ctx context.Context, source string, fields map[string]string) error {
	f.source = source
	f.fields = fields
	return f.upsertErr
}

func (f *fakeService) GetSchedule(ctx context.Context, days int) ([]models.ScheduledGame, error) {
	f.days = days
	return f.scheduled, f.err
}

func (f *fakeService) GetUpcomingTBDEvents(ctx context.Context, days int) ([]models.Event, error) {
	f.days = days
	return f.tbd, f.err
}

func serve(svc Service, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(svc, performance.NewTracker(), nil).ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	for path, want := range map[string]string{"/ping": "pong\n", "/health": "ok\n"} {
		rec := serve(&fakeService{}, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Errorf("%s = %d %q", path, rec.Code, rec.Body.String())
		}
	}

	rec := serve(&fakeService{}, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"overall"`) {
		t.Errorf("/metrics = %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetGamelines(t *testing.T) {
	captured := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	svc := &fakeService{entry: cache.Entry{
		CapturedAt: captured,
		Snapshot: models.Snapshot{"espn_api": {
			{Source: "espn_api", GameDay: "2026-10-17", HomeTeam: "Alabama", AwayTeam: "Tennessee"},
			{Source: "espn_api", GameDay: "2026-10-17", HomeTeam: "Texas", AwayTeam: "Oklahoma"},
		}},
	}}

	tests := []struct {
		query    string
		status   int
		useCache bool
	}{
		{query: "", status: http.StatusOK, useCache: true},
		{query: "?cache=false", status: http.StatusOK, useCache: false},
		{query: "?cache=maybe", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc.useCache = nil
			rec := serve(svc, httptest.NewRequest(http.MethodGet, "/ncaaf/gamelines"+tt.query, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if len(svc.useCache) != 1 || svc.useCache[0] != tt.useCache {
				t.Errorf("useCache = %v, want %v", svc.useCache, tt.useCache)
			}
			var resp GamelinesResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.GameCount != 2 || resp.LastUpdated != "2026-10-15T12:00:00Z" || len(resp.Gamelines["espn_api"]) != 2 {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestGetGamelines_Empty(t *testing.T) {
	rec := serve(&fakeService{}, httptest.NewRequest(http.MethodGet, "/ncaaf/gamelines", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"gamelines":{}`) || !strings.Contains(rec.Body.String(), `"game_count":0`) {
		t.Errorf("empty response = %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetGamelines_StoreError(t *testing.T) {
	rec := serve(&fakeService{err: errors.New("disk full")}, httptest.NewRequest(http.MethodGet, "/ncaaf/gamelines", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStoredGamelines(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, httptest.NewRequest(http.MethodGet, "/ncaaf/gamelines/stored?source=covers", nil))
	if rec.Code != http.StatusOK || svc.source != "covers" || !strings.Contains(rec.Body.String(), `"gamelines":[]`) {
		t.Errorf("stored = %d %s (source %q)", rec.Code, rec.Body.String(), svc.source)
	}
}

func TestUpsertGameline(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		svc := &fakeService{}
		body := `{"game_day": "2026-10-17", "home_team": "Alabama", "away_team": "Tennessee", "home_moneyline": -150, "home_spread": -3.5, "notes": null}`
		req := httptest.NewRequest(http.MethodPost, "/ncaaf/gamelines/manual", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := serve(svc, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if svc.source != "manual" || svc.fields["home_moneyline"] != "-150" || svc.fields["home_spread"] != "-3.5" {
			t.Errorf("fields = %v (source %q)", svc.fields, svc.source)
		}
		if _, ok := svc.fields["notes"]; ok {
			t.Error("null fields should be dropped")
		}
	})

	t.Run("form", func(t *testing.T) {
		svc := &fakeService{}
		form := url.Values{"game_day": {"2026-10-17"}, "home_team": {"Alabama"}, "away_team": {"Tennessee"}}
		req := httptest.NewRequest(http.MethodPost, "/ncaaf/gamelines/manual", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := serve(svc, req)
		if rec.Code != http.StatusCreated || svc.fields["home_team"] != "Alabama" {
			t.Errorf("status = %d, fields = %v", rec.Code, svc.fields)
		}
	})

	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{name: "invalid gameline", err: fmt.Errorf("%w: home team cannot be empty", validation.ErrInvalidGameline), body: `{}`, status: http.StatusBadRequest},
		{name: "store failure", err: errors.New("disk full"), body: `{}`, status: http.StatusInternalServerError},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ncaaf/gamelines/manual", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(&fakeService{upsertErr: tt.err}, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestScheduleAndTBD(t *testing.T) {
	tests := []struct {
		path     string
		status   int
		wantDays int
		wantKey  string
	}{
		{path: "/ncaaf/schedule", status: http.StatusOK, wantDays: 7, wantKey: `"games":[]`},
		{path: "/ncaaf/schedule?days=3", status: http.StatusOK, wantDays: 3, wantKey: `"games":[]`},
		{path: "/ncaaf/schedule?days=0", status: http.StatusBadRequest},
		{path: "/ncaaf/events/tbd?days=14", status: http.StatusOK, wantDays: 14, wantKey: `"events":[]`},
		{path: "/ncaaf/events/tbd?days=x", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(svc, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK && (svc.days != tt.wantDays || !strings.Contains(rec.Body.String(), tt.wantKey)) {
				t.Errorf("days = %d, body %s", svc.days, rec.Body.String())
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, httptest.NewRequest(http.MethodPost, "/ncaaf/refresh", nil))
	if rec.Code != http.StatusOK || svc.refreshes != 1 {
		t.Errorf("status = %d, refreshes = %d", rec.Code, svc.refreshes)
	}

	rec = serve(svc, httptest.NewRequest(http.MethodGet, "/ncaaf/refresh", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /ncaaf/refresh = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ncaaf/gamelines", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(&fakeService{}, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
