// Package telegram delivers notification messages through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/ghuser/budgetly/pkg/config"
	"github.com/ghuser/budgetly/pkg/logger"
)

// ParseModeHTML is the default parse mode; message builders escape all user text for it.
const ParseModeHTML = string(tele.ModeHTML)

// Message is one outbound chat message.
type Message struct {
	ChatID    string
	Text      string
	ParseMode string // defaults to ParseModeHTML
}

// Config tunes a Sender.
type Config struct {
	Token          string
	APIURL         string
	RetryBaseDelay time.Duration
	RatePerSec     float64
	HTTPTimeout    time.Duration
}

// ConfigFrom extracts the sender settings from the process config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Token:          cfg.TelegramBotToken,
		APIURL:         cfg.TelegramAPIURL,
		RetryBaseDelay: cfg.TelegramRetryBaseDelay,
		RatePerSec:     cfg.TelegramRatePerSec,
		HTTPTimeout:    cfg.TelegramHTTPTimeout,
	}
}

// chat addresses a message by the raw chat id string stored in settings.
type chat string

func (c chat) Recipient() string { return string(c) }

// Sender posts to /bot<token>/sendMessage. It never returns errors: every
// failure is logged and reported as false, because a failed notification must
// not fail the event that triggered it.
type Sender struct {
	bot       *tele.Bot
	limiter   *rate.Limiter
	baseDelay time.Duration
	log       logger.Logger
}

// NewSender builds a Sender. The bot runs offline (no getMe round trip at
// startup) and only ever sends.
func NewSender(cfg Config, log logger.Logger) (*Sender, error) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 8 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: true,
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
	})
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		log.Warn("telegram: bot token not set, notifications will not be delivered")
	}

	return &Sender{
		bot:       bot,
		limiter:   rate.NewLimiter(limit, 1),
		baseDelay: cfg.RetryBaseDelay,
		log:       log.With("component", "telegram"),
	}, nil
}

// SendMessage makes one delivery attempt and reports whether Telegram accepted it.
func (s *Sender) SendMessage(ctx context.Context, msg Message) bool {
	if msg.ParseMode == "" {
		msg.ParseMode = ParseModeHTML
	}
	if err := s.limiter.Wait(ctx); err != nil {
		s.log.WarnContext(ctx, "telegram: send cancelled while rate limited", "chat_id", msg.ChatID, "error", err)
		return false
	}

	_, err := s.bot.Send(chat(msg.ChatID), msg.Text, &tele.SendOptions{
		ParseMode: tele.ParseMode(msg.ParseMode),
	})
	if err != nil {
		attrs := []any{"chat_id", msg.ChatID, "error", err}
		var apiErr *tele.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.Code)
		}
		s.log.ErrorContext(ctx, "telegram: send failed", attrs...)
		return false
	}
	s.log.DebugContext(ctx, "telegram: message sent", "chat_id", msg.ChatID)
	return true
}

// SendMessageWithRetry makes up to maxRetries attempts, sleeping
// 2^attempt × base delay between them (2s, 4s, 8s for a 1s base). It gives up
// early when ctx ends.
func (s *Sender) SendMessageWithRetry(ctx context.Context, msg Message, maxRetries int) bool {
	if maxRetries < 1 {
		maxRetries = 1
	}
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if s.SendMessage(ctx, msg) {
			return true
		}
		if attempt == maxRetries {
			break
		}
		delay := s.baseDelay * time.Duration(1<<attempt)
		s.log.WarnContext(ctx, "telegram: send failed, retrying",
			"chat_id", msg.ChatID,
			"attempt", attempt,
			"max_retries", maxRetries,
			"next_delay", delay,
		)
		select {
		case <-ctx.Done():
			s.log.ErrorContext(ctx, "telegram: retry abandoned", "chat_id", msg.ChatID, "error", ctx.Err())
			return false
		case <-time.After(delay):
		}
	}
	s.log.ErrorContext(ctx, "telegram: all attempts failed", "chat_id", msg.ChatID, "attempts", maxRetries)
	return false
}
