package notify

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
)

func TestTelegramNotifier_RateLimit(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	n := newNotifier(func(text string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, text)
		return nil
	}, 30*time.Minute)

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	failures := []Failure{{Source: "espn", Reason: "status 503"}, {Source: "covers", Reason: "invalid batch"}}
	if !n.NotifyExhausted("c1", failures) {
		t.Fatal("first alert should be queued")
	}
	now = now.Add(10 * time.Minute)
	if n.NotifyExhausted("c2", failures) {
		t.Error("alert inside the interval should be suppressed")
	}
	now = now.Add(21 * time.Minute)
	if !n.NotifyExhausted("c3", failures) {
		t.Error("alert after the interval should be queued")
	}
	n.Close()

	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if !strings.Contains(sent[0], "c1") || !strings.Contains(sent[0], "espn: status 503") {
		t.Errorf("message = %q", sent[0])
	}
}

func TestTelegramNotifier_Nil(t *testing.T) {
	var n *TelegramNotifier
	if n.NotifyExhausted("c", nil) {
		t.Error("nil notifier must not report a queued alert")
	}
	n.Close()
}

func TestNewTelegramNotifier_Disabled(t *testing.T) {
	n, err := NewTelegramNotifier(config.TelegramConfig{ChatID: 42})
	if err != nil || n != nil {
		t.Errorf("NewTelegramNotifier() = %v, %v", n, err)
	}
}
