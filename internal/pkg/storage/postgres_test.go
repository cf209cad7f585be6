package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
)

// Set NCAAF_TEST_POSTGRES_DSN to a scratch database to run these. The tables
// are truncated before every case.
func newTestPostgres(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("NCAAF_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NCAAF_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStorage(&config.StorageConfig{Driver: "postgres", DSN: dsn}, time.UTC)
	if err != nil {
		t.Fatalf("NewPostgresStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.db.ExecContext(context.Background(), `TRUNCATE gamelines, events RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestPostgresStorage(t *testing.T) {
	runStoreCases(t, newTestPostgres)
}

func TestOpen_Postgres(t *testing.T) {
	dsn := os.Getenv("NCAAF_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NCAAF_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(config.StorageConfig{Driver: "postgres", DSN: dsn}, time.UTC)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*PostgresStorage); !ok {
		t.Errorf("Open() returned %T", s)
	}
}
