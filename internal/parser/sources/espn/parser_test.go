package espn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/ncaafbet/internal/parser/sources"
	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
)

const scoreboardJSON = `{
  "events": [
    {
      "id": "401",
      "date": "2026-10-17T19:30Z",
      "name": "Penn State Nittany Lions at Ohio State Buckeyes",
      "competitions": [{
        "id": "401",
        "date": "2026-10-17T19:30Z",
        "competitors": [
          {"homeAway": "away", "team": {"location": "Penn State", "displayName": "Penn State Nittany Lions"}},
          {"homeAway": "home", "team": {"location": "Ohio State", "displayName": "Ohio State Buckeyes"}}
        ],
        "odds": [
          {"provider": {"name": "Other"}, "spread": 1.5, "overUnder": 40.5,
           "homeTeamOdds": {"moneyLine": 110}, "awayTeamOdds": {"moneyLine": -130}},
          {"provider": {"name": "ESPN BET"}, "spread": 6.5, "overUnder": 47.5, "overOdds": -110.0, "underOdds": -110.0,
           "homeTeamOdds": {"moneyLine": -250, "spreadOdds": -105.0}, "awayTeamOdds": {"moneyLine": 200, "spreadOdds": -115.0}}
        ]
      }]
    },
    {
      "id": "402",
      "date": "2026-10-18T00:00Z",
      "name": "TBD at Georgia",
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "team": {"location": "Georgia"}}
        ],
        "odds": []
      }]
    },
    {
      "id": "403",
      "date": "2026-10-18T04:00Z",
      "name": "Hawaii at Fresno State",
      "competitions": [{
        "timeValid": false,
        "competitors": [
          {"homeAway": "home", "team": {"location": "Fresno State"}},
          {"homeAway": "away", "team": {"location": "Hawai'i"}}
        ]
      }]
    }
  ]
}`

func newTestSource(t *testing.T, url, provider string) sources.Source {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	src, err := New(config.SourceConfig{Name: "espn", Type: TypeName, Priority: 1, URL: url, Provider: provider, Timeout: 5 * time.Second}, loc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return src
}

func TestFetchGamelines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("groups") != fbsGroup {
			t.Errorf("groups = %q", r.URL.Query().Get("groups"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(scoreboardJSON))
	}))
	defer srv.Close()

	src := newTestSource(t, srv.URL, "ESPN BET")
	if src.Kind() != sources.KindAPI {
		t.Errorf("Kind = %s", src.Kind())
	}

	lines, err := src.FetchGamelines(context.Background())
	if err != nil {
		t.Fatalf("FetchGamelines() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d gamelines, want 2 (event without a home/away pair is skipped)", len(lines))
	}

	g := lines[0]
	if g.Source != "espn" {
		t.Errorf("Source = %q", g.Source)
	}
	if g.HomeTeam != "Ohio State" || g.AwayTeam != "Penn State" {
		t.Errorf("teams = %q vs %q, want home Ohio State / away Penn State", g.HomeTeam, g.AwayTeam)
	}
	if g.GameDay != "2026-10-17" || g.StartTime != "3:30 PM" {
		t.Errorf("kickoff = %s %s, want 2026-10-17 3:30 PM (Eastern)", g.GameDay, g.StartTime)
	}
	if *g.HomeMoneyline != -250 || *g.AwayMoneyline != 200 {
		t.Errorf("moneylines = %d / %d", *g.HomeMoneyline, *g.AwayMoneyline)
	}
	if !g.HomeSpread.Decimal.Equal(decimal.RequireFromString("-6.5")) || !g.AwaySpread.Decimal.Equal(decimal.RequireFromString("6.5")) {
		t.Errorf("spreads = %s / %s, want favorite home at -6.5", g.HomeSpread.Decimal, g.AwaySpread.Decimal)
	}
	if !g.OverUnder.Decimal.Equal(decimal.RequireFromString("47.5")) {
		t.Errorf("over/under = %s", g.OverUnder.Decimal)
	}
	if g.HomeSpreadOdds == nil || *g.HomeSpreadOdds != -105 || g.OverOdds == nil || *g.OverOdds != -110 {
		t.Errorf("juice not carried: %+v", g.Odds)
	}

	tbd := lines[1]
	if tbd.GameDay != "2026-10-18" || tbd.StartTime != "TBD" {
		t.Errorf("time-invalid game = %s %s", tbd.GameDay, tbd.StartTime)
	}
	if tbd.HasOdds() {
		t.Error("game without odds entries should carry no odds")
	}
}

func TestFetchGamelines_FirstProviderByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scoreboardJSON))
	}))
	defer srv.Close()

	lines, err := newTestSource(t, srv.URL, "").FetchGamelines(context.Background())
	if err != nil {
		t.Fatalf("FetchGamelines() error = %v", err)
	}
	if *lines[0].HomeMoneyline != 110 {
		t.Errorf("home moneyline = %d, want first provider's 110", *lines[0].HomeMoneyline)
	}
	// away is the moneyline favorite, so it carries the negative spread
	if !lines[0].AwaySpread.Decimal.Equal(decimal.RequireFromString("-1.5")) {
		t.Errorf("away spread = %s, want -1.5", lines[0].AwaySpread.Decimal)
	}
}

func TestFetchGamelines_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"events": [`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			lines, err := newTestSource(t, srv.URL, "").FetchGamelines(context.Background())
			if err == nil {
				t.Errorf("expected error, got %d lines", len(lines))
			}
		})
	}
}

func TestScheduledGames(t *testing.T) {
	var sb Scoreboard
	if err := json.Unmarshal([]byte(scoreboardJSON), &sb); err != nil {
		t.Fatal(err)
	}
	loc, _ := time.LoadLocation("America/New_York")

	games := ScheduledGames(&sb, loc)
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2: %+v", len(games), games)
	}
	if games[0].HomeTeam != "Ohio State" || games[0].GameDay != "2026-10-17" || games[0].StartTime != "3:30 PM" {
		t.Errorf("games[0] = %+v", games[0])
	}
	if games[1].StartTime != "TBD" || games[1].GameDay != "2026-10-18" {
		t.Errorf("games[1] = %+v", games[1])
	}
}
