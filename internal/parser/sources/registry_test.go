package sources

import (
	"context"
	"testing"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
)

type stubSource struct {
	Base
}

func (s *stubSource) FetchGamelines(ctx context.Context) ([]models.Gameline, error) {
	return s.Finish([]models.Gameline{{GameDay: "2026-10-17", HomeTeam: "Ohio St.", AwayTeam: "Iowa Hawkeyes"}}), nil
}

func init() {
	Register("stub_test", func(cfg config.SourceConfig, loc *time.Location) (Source, error) {
		return &stubSource{Base: NewBase(cfg, KindAPI)}, nil
	})
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("STUB_TEST", func(config.SourceConfig, *time.Location) (Source, error) { return nil, nil })
}

func TestBuild(t *testing.T) {
	srcs, err := Build([]config.SourceConfig{
		{Name: "one", Type: "stub_test", Priority: 2},
		{Name: "two", Type: "stub_test", Disabled: true},
	}, time.UTC)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(srcs) != 1 {
		t.Fatalf("got %d sources, want 1", len(srcs))
	}
	if srcs[0].Name() != "one" || srcs[0].Priority() != 2 || srcs[0].Kind() != KindAPI {
		t.Errorf("unexpected source %s/%d/%s", srcs[0].Name(), srcs[0].Priority(), srcs[0].Kind())
	}

	lines, _ := srcs[0].FetchGamelines(context.Background())
	if lines[0].Source != "one" || lines[0].HomeTeam != "Ohio State" || lines[0].AwayTeam != "Iowa" {
		t.Errorf("Finish did not stamp and normalize: %+v", lines[0])
	}
	if lines[0].StartTime != models.StartTimeTBD {
		t.Errorf("StartTime = %q", lines[0].StartTime)
	}
}

func TestBuild_UnknownType(t *testing.T) {
	if _, err := Build([]config.SourceConfig{{Name: "x", Type: "nope"}}, time.UTC); err == nil {
		t.Error("expected error for unknown type")
	}
}
