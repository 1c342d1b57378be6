package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"receptionist/internal/business"
	"receptionist/internal/domain"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// Telegram polls the Bot API for messages and answers them through the
// conversation handler.
type Telegram struct {
	token   string
	handler domain.Handler
	profile *business.Profile
	logger  *slog.Logger
	bot     *tgbotapi.BotAPI
}

type TelegramChannelConfig struct {
	Token   string
	Handler domain.Handler
	Profile *business.Profile
	Logger  *slog.Logger
}

func NewTelegram(cfg TelegramChannelConfig) *Telegram {
	return &Telegram{
		token:   cfg.Token,
		handler: cfg.Handler,
		profile: cfg.Profile,
		logger:  cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

var _ domain.Channel = (*Telegram)(nil)

// Start connects to Telegram and polls for updates until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected", "username", bot.Self.UserName, "id", bot.Self.ID)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if update.Message.IsCommand() {
		t.handleCommand(chatID, update.Message)
		return
	}

	t.logger.Info("telegram message received", "chat_id", chatID, "text_len", len(text))

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Send(typing)

	reply, err := t.handler.Handle(ctx, domain.IncomingMessage{
		Channel:    domain.ChannelTelegram,
		ChatID:     strconv.FormatInt(chatID, 10),
		Text:       text,
		ReceivedAt: time.Unix(int64(update.Message.Date), 0),
	})
	if err != nil {
		t.logger.Error("telegram handling failed", "error", err, "chat_id", chatID)
		t.sendMessage(chatID, t.profile.FallbackReply)
		return
	}
	t.sendMessage(chatID, reply.Text)
}

func (t *Telegram) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		t.sendMessage(chatID, fmt.Sprintf(
			"Hello! I'm the virtual receptionist for %s.\n\nAsk me anything about the business, or tell me when you'd like an appointment (for example: \"book me in tomorrow at 2pm\").",
			t.profile.Name,
		))
	default:
		t.sendMessage(chatID, "Unknown command. Type /help to see what I can do.")
	}
}

// sendMessage splits long replies to stay under Telegram's message limit.
func (t *Telegram) sendMessage(chatID int64, text string) {
	for len(text) > 0 {
		chunk := text
		if len(chunk) > telegramMaxMsgLen {
			cutAt := strings.LastIndex(chunk[:telegramMaxMsgLen], "\n")
			if cutAt < telegramMaxMsgLen/2 {
				cutAt = telegramMaxMsgLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		t.sendChunk(chatID, chunk)
	}
}

// sendChunk retries transient send failures with backoff; Telegram rate
// limits get a longer pause.
func (t *Telegram) sendChunk(chatID int64, text string) {
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		_, err := t.bot.Send(msg)
		if err == nil {
			return
		}

		errStr := err.Error()
		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off", "retry_after", retryAfter, "attempt", attempt+1)
			time.Sleep(retryAfter)
			continue
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "err", err, "attempts", telegramMaxSendRetries+1)
	}
}
