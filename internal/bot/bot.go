// Package bot answers Telegram chat commands with data from the analyzer service.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/format"
)

// Telegram rejects messages over 4096 characters.
const maxMessageLen = 4000

const helpText = `EasePick value pick bot

Commands:
/load [YYYY-MM-DD] - load fixtures (today by default)
/summary - picks and flags of the current analysis
/mode [B|C|D] - show or set the analysis mode of this chat
/picks [limit] - latest journalled picks
/help - show this help message

Send "analyze:Team A vs Team B, Team C" to restrict the analysis to these matchups.
Send "analyze:" to clear the filters.`

// Sender is the part of tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	sender  Sender
	client  *Client
	allowed map[int64]struct{}

	mu    sync.Mutex
	modes map[int64]analysis.Mode
}

// New creates a bot. An empty allowedUserIDs lets everyone in.
func New(sender Sender, client *Client, allowedUserIDs []int64) *Bot {
	b := &Bot{
		sender:  sender,
		client:  client,
		allowed: map[int64]struct{}{},
		modes:   map[int64]analysis.Mode{},
	}
	for _, id := range allowedUserIDs {
		b.allowed[id] = struct{}{}
	}
	return b
}

// Run handles updates until ctx is cancelled or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.HandleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.allowed) == 0 {
		return true
	}
	_, ok := b.allowed[userID]
	return ok
}

func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if message.From == nil || !b.isAllowed(message.From.ID) {
		b.reply(chatID, "Access denied. You are not authorized to use this bot.")
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(strings.ToLower(text), "analyze:") {
		b.handleAnalyze(ctx, chatID, text)
		return
	}
	if !strings.HasPrefix(text, "/") {
		b.reply(chatID, helpText)
		return
	}

	parts := strings.Fields(text)
	// Commands may carry a bot name suffix in group chats: /summary@easepick_bot
	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	args := parts[1:]

	switch command {
	case "/start", "/help":
		b.reply(chatID, helpText)
	case "/load":
		date := ""
		if len(args) > 0 {
			date = args[0]
		}
		b.handleLoad(ctx, chatID, date)
	case "/summary":
		b.handleSummary(ctx, chatID)
	case "/mode":
		b.handleMode(chatID, args)
	case "/picks":
		limit := 5
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 50 {
				limit = n
			}
		}
		b.handlePicks(ctx, chatID, limit)
	default:
		b.reply(chatID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) mode(chatID int64) analysis.Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.modes[chatID]; ok {
		return m
	}
	return analysis.ModeB
}

func (b *Bot) handleMode(chatID int64, args []string) {
	if len(args) == 0 {
		b.reply(chatID, fmt.Sprintf("Current mode: %s", b.mode(chatID)))
		return
	}
	m, err := analysis.ParseMode(args[0])
	if err != nil {
		b.reply(chatID, "Unknown mode. Use /mode B, /mode C or /mode D.")
		return
	}
	b.mu.Lock()
	b.modes[chatID] = m
	b.mu.Unlock()
	b.reply(chatID, fmt.Sprintf("Mode set to %s.", m))
}

func (b *Bot) handleLoad(ctx context.Context, chatID int64, date string) {
	b.typing(chatID)
	res, err := b.client.Load(ctx, date)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	text := res.Message
	if res.OddsFailures > 0 {
		text += fmt.Sprintf(" Odds unavailable for %d of them.", res.OddsFailures)
	}
	b.reply(chatID, fmt.Sprintf("%s\nPicks: %d | Flags: %d", text, res.Picks, res.Flags))
}

func (b *Bot) handleAnalyze(ctx context.Context, chatID int64, command string) {
	b.typing(chatID)
	res, err := b.client.ApplyFilters(ctx, command)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	header := "Filters cleared."
	if len(res.Filters) > 0 {
		header = "Filters: " + strings.Join(res.Filters, ", ")
	}
	header += fmt.Sprintf("\nAnalysed: %d | Picks: %d | Flags: %d", res.Analysed, res.Picks, res.Flags)
	b.sendSummary(ctx, chatID, header)
}

func (b *Bot) handleSummary(ctx context.Context, chatID int64) {
	b.typing(chatID)
	s, err := b.client.Summary(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if !s.Loaded {
		b.reply(chatID, "No analysis yet. Use /load [YYYY-MM-DD] first.")
		return
	}
	header := s.Banner
	if s.Command != "" {
		header += "\nFilters: " + s.Command
	}
	b.sendSummary(ctx, chatID, header)
}

// sendSummary sends header followed by the analysis summary in the chat's mode.
func (b *Bot) sendSummary(ctx context.Context, chatID int64, header string) {
	m := b.mode(chatID)
	text, err := b.client.AnalysisSummary(ctx, m)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if text == "" {
		text = "No fixtures to show."
	}
	for _, part := range splitMessage(fmt.Sprintf("%s\n\nMode %s\n%s", header, m, text), maxMessageLen) {
		b.reply(chatID, part)
	}
}

func (b *Bot) handlePicks(ctx context.Context, chatID int64, limit int) {
	b.typing(chatID)
	picks, err := b.client.RecentPicks(ctx, limit)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(picks) == 0 {
		b.reply(chatID, "No picks journalled yet.")
		return
	}

	var lines []string
	for i, p := range picks {
		lines = append(lines, fmt.Sprintf("%d. %s\n%s | %s | Factor pick: %s | Edge: %s | %s",
			i+1, p.MatchName, p.League, format.DateTime(p.Kickoff, "utc"), p.FactorPick, format.Edge(p.Edge), p.Status))
	}
	for _, part := range splitMessage(strings.Join(lines, "\n\n"), maxMessageLen) {
		b.reply(chatID, part)
	}
}

func (b *Bot) typing(chatID int64) {
	_, _ = b.sender.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("telegram-bot: failed to send message: %v", err)
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	b.reply(chatID, "❌ Error: "+err.Error())
}

// splitMessage cuts text into parts of at most limit bytes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			// Do not split a multi-byte rune.
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}
