// Package bot is the Telegram front end. It owns the long-polling loop,
// a per-chat conversation state machine for the day-registration flow and
// the Spanish user-facing replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrivasf/jornada/internal/calendar"
	"github.com/mrivasf/jornada/internal/workday"
)

// Runner is the slice of the pipeline the bot drives.
type Runner interface {
	Classify(day time.Time) calendar.Classification
	PlanRegistration(day time.Time, dayType workday.Type) workday.Registration
	RegisterDay(ctx context.Context, reg workday.Registration) (workday.Registration, *workday.WeeklyReport, error)
	WeeklyReport(ctx context.Context, previous bool) (*workday.WeeklyReport, error)
}

// sender is the part of the Telegram API the bot uses to reply.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type state int

const (
	stateAwaitDay state = iota + 1
	stateAwaitConfirm
)

type conversation struct {
	state   state
	planned workday.Registration
}

// Config wires a Bot.
type Config struct {
	// API sends replies; in production a *tgbotapi.BotAPI.
	API sender
	// ChatID is the only chat the bot talks to. Messages from any other
	// chat are dropped.
	ChatID   int64
	Runner   Runner
	Version  string
	Location *time.Location
	// MessagesPerMinute caps handled messages; excess input is dropped.
	MessagesPerMinute int
	Logger            *slog.Logger
}

type Bot struct {
	api     sender
	chatID  int64
	runner  Runner
	version string
	loc     *time.Location
	limiter *rateLimiter
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[int64]*conversation
}

func New(cfg Config) (*Bot, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("bot: API is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("bot: Runner is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perMinute := cfg.MessagesPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	return &Bot{
		api:     cfg.API,
		chatID:  cfg.ChatID,
		runner:  cfg.Runner,
		version: cfg.Version,
		loc:     loc,
		limiter: newRateLimiter(perMinute, time.Minute),
		logger:  logger,
		pending: map[int64]*conversation{},
	}, nil
}

// Run consumes updates until ctx is cancelled or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
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

// HandleMessage processes one incoming message and sends the reply.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.ID != b.chatID {
		b.logger.Warn("message from unauthorized chat", "chat_id", chatIDOf(msg))
		return
	}
	if !b.limiter.allow() {
		b.logger.Warn("rate limit exceeded, dropping message")
		return
	}

	var reply string
	if msg.IsCommand() {
		reply = b.handleCommand(ctx, msg)
	} else {
		reply = b.handleText(ctx, msg)
	}
	if reply != "" {
		b.send(msg.Chat.ID, reply)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) string {
	b.clearPending(msg.Chat.ID)

	switch msg.Command() {
	case "start", "help":
		return helpText
	case "version":
		return fmt.Sprintf("🤖 jornada %s", b.version)
	case "info":
		return b.report(ctx, false)
	case "infop":
		return b.report(ctx, true)
	case "dia":
		b.setPending(msg.Chat.ID, &conversation{state: stateAwaitDay})
		return askDayText
	}
	return "No te he entendido. Prueba /help"
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) string {
	conv := b.getPending(msg.Chat.ID)
	if conv == nil {
		return cannedReply(msg.Text, firstName(msg))
	}

	switch conv.state {
	case stateAwaitDay:
		return b.handleDayInput(ctx, msg.Chat.ID, msg.Text)
	case stateAwaitConfirm:
		return b.handleConfirmInput(ctx, msg.Chat.ID, conv, msg.Text)
	}
	b.clearPending(msg.Chat.ID)
	return cannedReply(msg.Text, firstName(msg))
}

func (b *Bot) handleDayInput(ctx context.Context, chatID int64, text string) string {
	day, err := workday.ParseDay(strings.ToUpper(strings.TrimSpace(text)), time.Now().In(b.loc))
	if err != nil {
		b.clearPending(chatID)
		return "⚠️ Día no válido. Usa HOY, AYER o YYYYMMDD."
	}

	cls := b.runner.Classify(day)
	if cls.Register {
		b.clearPending(chatID)
		reg := b.runner.PlanRegistration(day, cls.Type)
		return b.register(ctx, cls, reg)
	}

	// Office days, holidays and vacations all need an explicit go-ahead.
	b.setPending(chatID, &conversation{
		state:   stateAwaitConfirm,
		planned: b.runner.PlanRegistration(day, cls.Type),
	})
	return cls.Message + "\n¿Registrar de todas formas? (S/N)"
}

func (b *Bot) handleConfirmInput(ctx context.Context, chatID int64, conv *conversation, text string) string {
	switch {
	case isYes(text):
		b.clearPending(chatID)
		cls := b.runner.Classify(conv.planned.Date)
		return b.register(ctx, cls, conv.planned)
	case isNo(text):
		b.clearPending(chatID)
		return "👍 Registro cancelado."
	}
	return "Responde S o N, por favor."
}

func (b *Bot) register(ctx context.Context, cls calendar.Classification, reg workday.Registration) string {
	result, report, err := b.runner.RegisterDay(ctx, reg)
	if err != nil {
		b.logger.Error("registration failed", "date", reg.Date.Format(workday.DateFormat), "error", err)
		return errorMessage(err)
	}

	reply := cls.Message + "\n" + result.TelegramMessage()
	if report != nil {
		reply += "\n\n" + report.TelegramMessage()
	}
	return reply
}

func (b *Bot) report(ctx context.Context, previous bool) string {
	report, err := b.runner.WeeklyReport(ctx, previous)
	if err != nil {
		b.logger.Error("weekly report failed", "previous", previous, "error", err)
		return errorMessage(err)
	}
	return report.TelegramMessage()
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send reply", "error", err)
	}
}

func (b *Bot) getPending(chatID int64) *conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[chatID]
}

func (b *Bot) setPending(chatID int64, conv *conversation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[chatID] = conv
}

func (b *Bot) clearPending(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, chatID)
}

func chatIDOf(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}

func firstName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return msg.From.FirstName
}
