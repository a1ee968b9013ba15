// Package telegram bridges private Telegram chats to the command shell.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/rs/zerolog"

	"cogitator/internal/commands"
	"cogitator/internal/metrics"
)

var ErrNoAllowedUser = errors.New("TELEGRAM_ALLOWED_USER_ID is required")

// Executor runs one shell line for a chat.
type Executor interface {
	Execute(ctx context.Context, line string) commands.Result
}

// sender is the part of *gotgbot.Bot the bridge talks to.
type sender interface {
	SendMessage(chatID int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
}

type Config struct {
	Token         string
	AllowedUserID int64
	// NewSession builds the shell for a user on first contact.
	NewSession  func(userID int64) Executor
	Dedupe      Deduplicator
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	LineTimeout time.Duration
}

type Service struct {
	token         string
	allowedUserID int64
	newSession    func(int64) Executor
	dedupe        Deduplicator
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	lineTimeout   time.Duration

	mu       sync.Mutex
	sessions map[int64]Executor
	updater  *ext.Updater
}

func NewService(cfg Config) (*Service, error) {
	if cfg.AllowedUserID == 0 {
		return nil, ErrNoAllowedUser
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	if cfg.LineTimeout <= 0 {
		cfg.LineTimeout = 2 * time.Minute
	}
	return &Service{
		token:         cfg.Token,
		allowedUserID: cfg.AllowedUserID,
		newSession:    cfg.NewSession,
		dedupe:        cfg.Dedupe,
		logger:        cfg.Logger,
		metrics:       m,
		lineTimeout:   cfg.LineTimeout,
		sessions:      make(map[int64]Executor),
	}, nil
}

func (s *Service) Register(d *ext.Dispatcher) {
	d.AddHandler(handlers.NewMessage(func(msg *gotgbot.Message) bool {
		return message.Private(msg) && message.Text(msg)
	}, s.privateText))
}

// Run long-polls until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	bot, err := gotgbot.NewBot(s.token, nil)
	if err != nil {
		return fmt.Errorf("create telegram bot: %s", SanitizeError(err, s.token))
	}
	s.logger.Info().Str("bot_username", bot.User.Username).Int64("bot_id", bot.User.Id).Msg("telegram bot initialized")

	logErr := func(err error) {
		s.logger.Error().Str("component", "telegram").Msg(SanitizeError(err, s.token))
	}
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		MaxRoutines:      10,
		UnhandledErrFunc: logErr,
		Processor: Processor{
			Dedupe:        s.dedupe,
			Metrics:       s.metrics,
			Logger:        s.logger,
			AllowedUserID: s.allowedUserID,
		},
	})
	s.Register(dispatcher)

	updater := ext.NewUpdater(dispatcher, &ext.UpdaterOpts{UnhandledErrFunc: logErr})
	if err := updater.StartPolling(bot, &ext.PollingOpts{
		EnableWebhookDeletion: true,
		DropPendingUpdates:    true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 50,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 60 * time.Second,
			},
		},
	}); err != nil {
		return fmt.Errorf("start polling: %s", SanitizeError(err, s.token))
	}
	s.logger.Info().Int64("allowed_user_id", s.allowedUserID).Msg("polling mode started")

	<-ctx.Done()
	if err := updater.Stop(); err != nil {
		s.logger.Error().Err(err).Msg("failed to stop updater")
	}
	return nil
}

func (s *Service) session(userID int64) Executor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ex, ok := s.sessions[userID]; ok {
		return ex
	}
	ex := s.newSession(userID)
	s.sessions[userID] = ex
	return ex
}

// SanitizeError strips the bot token from transport errors before they are logged.
func SanitizeError(err error, token string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.TrimSpace(token) == "" {
		return msg
	}

	msg = strings.ReplaceAll(msg, token, "<redacted-token>")
	if idx := strings.Index(token, ":"); idx > 0 {
		botID := token[:idx]
		msg = strings.ReplaceAll(msg, "/bot"+botID+":", "/bot<redacted>:")
		msg = strings.ReplaceAll(msg, "bot"+botID+"/", "bot<redacted>/")
	}
	return msg
}
