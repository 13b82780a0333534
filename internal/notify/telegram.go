// Package notify delivers pick alerts to Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/format"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

const queueSize = 100

var (
	ErrNotifierStopped = errors.New("notifier stopped")
	ErrQueueFull       = errors.New("message queue is full")
)

// PickAlert is a tier 3 pick worth telling the chat about.
type PickAlert struct {
	RunID string
	Row   analysis.Row
	// Trigger says why the alert fires, e.g. "new pick" or "edge +2.10".
	Trigger string
}

// sender is the part of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier queues messages and sends them in the background, at most one per interval.
type TelegramNotifier struct {
	bot      sender
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time

	queue     chan string
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// NewTelegramNotifier connects the bot and starts the background sender.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	n := newTelegramNotifier(bot, chatID, telegramSendInterval)
	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return n, nil
}

func newTelegramNotifier(bot sender, chatID int64, interval time.Duration) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		interval:  interval,
		queue:     make(chan string, queueSize),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go n.messageSender()
	return n
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

// messageSender runs in background and sends queued messages with proper intervals
func (n *TelegramNotifier) messageSender() {
	defer close(n.queueDone)
	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := n.interval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	start := time.Now()
	_, err := n.bot.Send(msg)
	n.lastSend = time.Now()
	if err != nil {
		slog.Error("Telegram send: failed", "error", err, "preview", truncateString(text, 50))
		return
	}
	slog.Info("Telegram send: success",
		"send_duration", time.Since(start),
		"queue_length", len(n.queue))
}

func (n *TelegramNotifier) enqueue(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	select {
	case <-n.ctx.Done():
		return ErrNotifierStopped
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendPickAlert queues an alert for a pick (non-blocking)
func (n *TelegramNotifier) SendPickAlert(ctx context.Context, alert PickAlert) error {
	if err := n.enqueue(ctx, FormatPickAlert(alert)); err != nil {
		slog.Warn("Telegram pick alert dropped", "fixture_id", alert.Row.FixtureID, "error", err)
		return err
	}
	return nil
}

// SendText queues a plain message (non-blocking)
func (n *TelegramNotifier) SendText(ctx context.Context, text string) error {
	return n.enqueue(ctx, escapeMarkdown(text))
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.stopOnce.Do(n.cancel)
	<-n.queueDone
}

// FormatPickAlert renders an alert as a MarkdownV2 message.
func FormatPickAlert(alert PickAlert) string {
	row := alert.Row
	f := row.Fixture

	var b strings.Builder
	b.WriteString("🎯 *" + escapeMarkdown("Value pick (mode "+string(row.Mode)+")") + "*\n\n")
	b.WriteString("*" + escapeMarkdown(f.Home.Name+" vs "+f.Away.Name) + "*\n")
	b.WriteString(escapeMarkdown("🏆 "+row.League) + "\n")
	if !f.Date.IsZero() {
		b.WriteString(escapeMarkdown("🕐 Kick-off: "+format.DateTime(f.Date, "utc")) + "\n")
	}
	b.WriteString(escapeMarkdown(fmt.Sprintf("📌 Market pick: %s | Factor pick: ", row.MarketPick)))
	b.WriteString("*" + escapeMarkdown(string(row.FactorPick)+" ("+row.TeamFavour+")") + "*\n")
	b.WriteString(escapeMarkdown(fmt.Sprintf("📈 Edge: %s, confidence %s",
		edgeText(row.Edge), format.PercentagePtr(scale(row.Confidence)))) + "\n")
	b.WriteString(escapeMarkdown("✅ "+row.Outcome.FlagThreshold) + "\n")
	if len(row.Notes) > 0 {
		b.WriteString("\n" + escapeMarkdown(strings.Join(row.Notes, "\n")) + "\n")
	}
	if alert.Trigger != "" {
		b.WriteString("\n_" + escapeMarkdown(alert.Trigger) + "_")
	}
	return b.String()
}

func edgeText(edge *float64) string {
	if edge == nil {
		return format.Missing
	}
	return format.Edge(*edge)
}

func scale(confidence *float64) *float64 {
	if confidence == nil {
		return nil
	}
	p := *confidence / 100
	return &p
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}
