// Package notify alerts an operator when no source could be used, so lines
// can be entered by hand.
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/ncaafbet/internal/pkg/config"
)

// Failure is one source that did not yield usable gamelines.
type Failure struct {
	Source string
	Reason string
}

// TelegramNotifier posts alerts to one chat. At most one alert is sent per
// minInterval; extra alerts are dropped. All methods are safe on a nil
// notifier, which is what NewTelegramNotifier returns when no token is set.
type TelegramNotifier struct {
	send        func(text string) error
	minInterval time.Duration
	now         func() time.Time

	mu       sync.Mutex
	lastSend time.Time

	queue chan string
	wg    sync.WaitGroup
}

// NewTelegramNotifier connects the bot. It returns (nil, nil) when the bot
// token or chat id is not configured.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	chatID := cfg.ChatID
	send := func(text string) error {
		_, err := bot.Send(tgbotapi.NewMessage(chatID, text))
		return err
	}
	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return newNotifier(send, cfg.MinInterval), nil
}

func newNotifier(send func(string) error, minInterval time.Duration) *TelegramNotifier {
	n := &TelegramNotifier{
		send:        send,
		minInterval: minInterval,
		now:         time.Now,
		queue:       make(chan string, 16),
	}
	n.wg.Add(1)
	go n.messageSender()
	return n
}

// NotifyExhausted queues an alert for a cycle where every source failed.
// It reports whether the alert was queued.
func (n *TelegramNotifier) NotifyExhausted(cycleID string, failures []Failure) bool {
	if n == nil {
		return false
	}

	n.mu.Lock()
	now := n.now()
	if !n.lastSend.IsZero() && now.Sub(n.lastSend) < n.minInterval {
		n.mu.Unlock()
		slog.Debug("Telegram: alert suppressed by rate limit", "cycle_id", cycleID)
		return false
	}
	n.lastSend = now
	n.mu.Unlock()

	select {
	case n.queue <- formatExhausted(cycleID, failures, now):
		return true
	default:
		slog.Warn("Telegram: queue full, alert dropped", "cycle_id", cycleID)
		return false
	}
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()
	for text := range n.queue {
		if err := n.send(text); err != nil {
			slog.Error("Telegram: failed to send alert", "error", err)
		}
	}
}

// Close flushes queued alerts and stops the sender.
func (n *TelegramNotifier) Close() {
	if n == nil {
		return
	}
	close(n.queue)
	n.wg.Wait()
}

func formatExhausted(cycleID string, failures []Failure, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NCAAF gamelines: no source produced usable lines\n")
	fmt.Fprintf(&b, "cycle %s at %s\n", cycleID, at.UTC().Format(time.RFC3339))
	for _, f := range failures {
		fmt.Fprintf(&b, "- %s: %s\n", f.Source, f.Reason)
	}
	b.WriteString("Enter lines manually via POST /ncaaf/gamelines/{source}.")
	return b.String()
}
