package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Ensure PostgresStorage implements Store
var _ Store = (*PostgresStorage)(nil)

// PostgresStorage keeps gamelines and events in PostgreSQL.
type PostgresStorage struct {
	db  *sql.DB
	loc *time.Location
	mu  sync.Mutex // serializes writes
}

// NewPostgresStorage connects to cfg.DSN and creates the schema if missing.
func NewPostgresStorage(cfg *config.StorageConfig, loc *time.Location) (*PostgresStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStorage{db: db, loc: loc}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL storage initialized successfully")
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS gamelines (
		id SERIAL PRIMARY KEY,
		source VARCHAR(100) NOT NULL,
		game_day VARCHAR(10) NOT NULL,
		home_team VARCHAR(200) NOT NULL,
		away_team VARCHAR(200) NOT NULL,
		start_time VARCHAR(50) NOT NULL DEFAULT 'TBD',
		home_moneyline INTEGER,
		away_moneyline INTEGER,
		home_spread NUMERIC(6, 1),
		away_spread NUMERIC(6, 1),
		home_spread_odds INTEGER,
		away_spread_odds INTEGER,
		over_under NUMERIC(6, 1),
		over_odds INTEGER,
		under_odds INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(source, game_day, home_team, away_team)
	);

	CREATE INDEX IF NOT EXISTS idx_gamelines_game_day ON gamelines(game_day);

	CREATE TABLE IF NOT EXISTS events (
		id SERIAL PRIMARY KEY,
		game_day VARCHAR(10) NOT NULL,
		home_team VARCHAR(200) NOT NULL,
		away_team VARCHAR(200) NOT NULL,
		start_time VARCHAR(50) NOT NULL DEFAULT 'TBD',
		status VARCHAR(10) NOT NULL,
		source VARCHAR(100) NOT NULL DEFAULT '',
		home_moneyline INTEGER,
		away_moneyline INTEGER,
		home_spread NUMERIC(6, 1),
		away_spread NUMERIC(6, 1),
		home_spread_odds INTEGER,
		away_spread_odds INTEGER,
		over_under NUMERIC(6, 1),
		over_odds INTEGER,
		under_odds INTEGER,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(game_day, home_team, away_team)
	);

	CREATE INDEX IF NOT EXISTS idx_events_game_day ON events(game_day);
	CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

const gamelineColumns = `source, game_day, start_time, home_team, away_team,
	home_moneyline, away_moneyline, home_spread, away_spread,
	home_spread_odds, away_spread_odds, over_under, over_odds, under_odds,
	created_at, updated_at`

// UpsertGameline inserts g or overwrites the row with the same key.
// Uses UPSERT: one row per (source, game_day, home_team, away_team).
func (s *PostgresStorage) UpsertGameline(ctx context.Context, g models.Gameline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO gamelines (
		source, game_day, start_time, home_team, away_team,
		home_moneyline, away_moneyline, home_spread, away_spread,
		home_spread_odds, away_spread_odds, over_under, over_odds, under_odds
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (source, game_day, home_team, away_team) DO UPDATE SET
		start_time = EXCLUDED.start_time,
		home_moneyline = EXCLUDED.home_moneyline,
		away_moneyline = EXCLUDED.away_moneyline,
		home_spread = EXCLUDED.home_spread,
		away_spread = EXCLUDED.away_spread,
		home_spread_odds = EXCLUDED.home_spread_odds,
		away_spread_odds = EXCLUDED.away_spread_odds,
		over_under = EXCLUDED.over_under,
		over_odds = EXCLUDED.over_odds,
		under_odds = EXCLUDED.under_odds,
		updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		g.Source, g.GameDay, g.StartTime, g.HomeTeam, g.AwayTeam,
		g.HomeMoneyline, g.AwayMoneyline, g.HomeSpread, g.AwaySpread,
		g.HomeSpreadOdds, g.AwaySpreadOdds, g.OverUnder, g.OverOdds, g.UnderOdds,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert gameline %s %s@%s: %w", g.GameDay, g.AwayTeam, g.HomeTeam, err)
	}
	return nil
}

// ReadGamelines returns stored gamelines in chronological order.
func (s *PostgresStorage) ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error) {
	query := `SELECT ` + gamelineColumns + ` FROM gamelines`
	var args []any
	if source != "" {
		query += ` WHERE source = $1`
		args = append(args, source)
	}
	query += ` ORDER BY game_day, source, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read gamelines: %w", err)
	}
	defer rows.Close()

	var lines []models.Gameline
	for rows.Next() {
		var g models.Gameline
		if err := rows.Scan(
			&g.Source, &g.GameDay, &g.StartTime, &g.HomeTeam, &g.AwayTeam,
			&g.HomeMoneyline, &g.AwayMoneyline, &g.HomeSpread, &g.AwaySpread,
			&g.HomeSpreadOdds, &g.AwaySpreadOdds, &g.OverUnder, &g.OverOdds, &g.UnderOdds,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan gameline: %w", err)
		}
		lines = append(lines, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gamelines: %w", err)
	}
	models.SortGamelines(lines, s.loc)
	return lines, nil
}

// PurgeElapsed deletes gamelines for games that are over at now.
func (s *PostgresStorage) PurgeElapsed(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(ctx, "gamelines", now)
}

// ReplaceEvents upserts events in one transaction.
func (s *PostgresStorage) ReplaceEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO events (
		game_day, home_team, away_team, start_time, status, source,
		home_moneyline, away_moneyline, home_spread, away_spread,
		home_spread_odds, away_spread_odds, over_under, over_odds, under_odds
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (game_day, home_team, away_team) DO UPDATE SET
		start_time = EXCLUDED.start_time,
		status = EXCLUDED.status,
		source = EXCLUDED.source,
		home_moneyline = EXCLUDED.home_moneyline,
		away_moneyline = EXCLUDED.away_moneyline,
		home_spread = EXCLUDED.home_spread,
		away_spread = EXCLUDED.away_spread,
		home_spread_odds = EXCLUDED.home_spread_odds,
		away_spread_odds = EXCLUDED.away_spread_odds,
		over_under = EXCLUDED.over_under,
		over_odds = EXCLUDED.over_odds,
		under_odds = EXCLUDED.under_odds,
		updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.GameDay, e.HomeTeam, e.AwayTeam, e.StartTime, string(e.Status), e.Source,
			e.HomeMoneyline, e.AwayMoneyline, e.HomeSpread, e.AwaySpread,
			e.HomeSpreadOdds, e.AwaySpreadOdds, e.OverUnder, e.OverOdds, e.UnderOdds,
		); err != nil {
			return fmt.Errorf("failed to upsert event %s %s@%s: %w", e.GameDay, e.AwayTeam, e.HomeTeam, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

// ReadEvents returns events between from and to inclusive.
func (s *PostgresStorage) ReadEvents(ctx context.Context, from, to string, status models.EventStatus) ([]models.Event, error) {
	query := `
	SELECT game_day, start_time, home_team, away_team, status, source,
		home_moneyline, away_moneyline, home_spread, away_spread,
		home_spread_odds, away_spread_odds, over_under, over_odds, under_odds, updated_at
	FROM events
	WHERE game_day >= $1 AND game_day <= $2 AND ($3::text = '' OR status = $3::text)
	ORDER BY game_day, id
	`
	rows, err := s.db.QueryContext(ctx, query, from, to, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var st string
		if err := rows.Scan(
			&e.GameDay, &e.StartTime, &e.HomeTeam, &e.AwayTeam, &st, &e.Source,
			&e.HomeMoneyline, &e.AwayMoneyline, &e.HomeSpread, &e.AwaySpread,
			&e.HomeSpreadOdds, &e.AwaySpreadOdds, &e.OverUnder, &e.OverOdds, &e.UnderOdds, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Status = models.EventStatus(st)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	models.SortEvents(events, s.loc)
	return events, nil
}

// PurgeElapsedEvents deletes events for games that are over at now.
func (s *PostgresStorage) PurgeElapsedEvents(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(ctx, "events", now)
}

type purgeCandidate struct {
	id        uint
	gameDay   string
	startTime string
}

// purge deletes elapsed rows of table. Start times are free text, so the
// elapsed check for today's games happens here rather than in SQL.
func (s *PostgresStorage) purge(ctx context.Context, table string, now time.Time) (int64, error) {
	today := now.Format(models.GameDayLayout)
	rows, err := s.db.QueryContext(ctx, `SELECT id, game_day, start_time FROM `+table+` WHERE game_day <= $1`, today)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s purge candidates: %w", table, err)
	}
	var candidates []purgeCandidate
	for rows.Next() {
		var c purgeCandidate
		if err := rows.Scan(&c.id, &c.gameDay, &c.startTime); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan %s purge candidate: %w", table, err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to load %s purge candidates: %w", table, err)
	}

	ids := elapsedIDs(candidates, now, func(c purgeCandidate) (uint, string, string) { return c.id, c.gameDay, c.startTime })
	if len(ids) == 0 {
		return 0, nil
	}
	arr := make([]int64, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, pq.Array(arr))
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", table, err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		slog.Info("Purged elapsed rows", "table", table, "rows_deleted", deleted)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
