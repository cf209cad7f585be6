package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

// Ensure SQLiteStorage implements Store
var _ Store = (*SQLiteStorage)(nil)

// SQLiteStorage keeps gamelines and events in a local SQLite file.
type SQLiteStorage struct {
	db  *gorm.DB
	loc *time.Location
	mu  sync.Mutex // serializes writes
}

// NewSQLiteStorage opens (creating if needed) the database file at path and
// migrates the schema.
func NewSQLiteStorage(path string, loc *time.Location) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&gamelineRow{}, &eventRow{}); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("SQLite storage initialized", "path", path)
	return &SQLiteStorage{db: db, loc: loc}, nil
}

// UpsertGameline inserts g or overwrites the row with the same key.
func (s *SQLiteStorage) UpsertGameline(ctx context.Context, g models.Gameline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := newGamelineRow(g)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "source"}, {Name: "game_day"}, {Name: "home_team"}, {Name: "away_team"},
		},
		DoUpdates: clause.AssignmentColumns(gamelineUpdateColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert gameline %s %s@%s: %w", g.GameDay, g.AwayTeam, g.HomeTeam, err)
	}
	return nil
}

// ReadGamelines returns stored gamelines in chronological order.
func (s *SQLiteStorage) ReadGamelines(ctx context.Context, source string) ([]models.Gameline, error) {
	q := s.db.WithContext(ctx).Model(&gamelineRow{})
	if source != "" {
		q = q.Where("source = ?", source)
	}
	var rows []gamelineRow
	if err := q.Order("game_day, source, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read gamelines: %w", err)
	}

	lines := make([]models.Gameline, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.model())
	}
	models.SortGamelines(lines, s.loc)
	return lines, nil
}

// PurgeElapsed deletes gamelines for games that are over at now.
func (s *SQLiteStorage) PurgeElapsed(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []gamelineRow
	today := now.Format(models.GameDayLayout)
	if err := s.db.WithContext(ctx).Select("id", "game_day", "start_time").
		Where("game_day <= ?", today).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to load purge candidates: %w", err)
	}
	ids := elapsedIDs(rows, now, func(r gamelineRow) (uint, string, string) { return r.ID, r.GameDay, r.StartTime })
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Delete(&gamelineRow{}, ids)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge gamelines: %w", res.Error)
	}
	slog.Info("Purged elapsed gamelines", "rows_deleted", res.RowsAffected)
	return res.RowsAffected, nil
}

// ReplaceEvents upserts events in one transaction.
func (s *SQLiteStorage) ReplaceEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, newEventRow(e))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_day"}, {Name: "home_team"}, {Name: "away_team"}},
			DoUpdates: clause.AssignmentColumns(eventUpdateColumns),
		}).CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace events: %w", err)
	}
	return nil
}

// ReadEvents returns events between from and to inclusive.
func (s *SQLiteStorage) ReadEvents(ctx context.Context, from, to string, status models.EventStatus) ([]models.Event, error) {
	q := s.db.WithContext(ctx).Model(&eventRow{}).Where("game_day >= ? AND game_day <= ?", from, to)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var rows []eventRow
	if err := q.Order("game_day, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.model())
	}
	models.SortEvents(events, s.loc)
	return events, nil
}

// PurgeElapsedEvents deletes events for games that are over at now.
func (s *SQLiteStorage) PurgeElapsedEvents(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []eventRow
	today := now.Format(models.GameDayLayout)
	if err := s.db.WithContext(ctx).Select("id", "game_day", "start_time").
		Where("game_day <= ?", today).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to load event purge candidates: %w", err)
	}
	ids := elapsedIDs(rows, now, func(r eventRow) (uint, string, string) { return r.ID, r.GameDay, r.StartTime })
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Delete(&eventRow{}, ids)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge events: %w", res.Error)
	}
	slog.Info("Purged elapsed events", "rows_deleted", res.RowsAffected)
	return res.RowsAffected, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
