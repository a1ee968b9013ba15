// Package shell turns raw input lines into router or gateway calls. Every
// presentation (TUI, CLI, Telegram) drives one Session per user.
package shell

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"cogitator/internal/commands"
)

const (
	Prefix = "/"

	MsgChatFailed    = "The machine spirit dwells in silence. Use /help for protocols."
	MsgCommandFailed = "Sacred protocol failed. The machine spirit requires appeasement."

	LoadingCommand = "Processing sacred protocol..."
	LoadingChat    = "The machine spirit contemplates your words..."
)

type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args []string) commands.Result
}

type Config struct {
	Router Dispatcher
	Chat   commands.Chatter
	Logger zerolog.Logger
}

// Session processes one line at a time. A second Execute blocks until the
// first finishes; presentations check Busy to avoid queueing input.
type Session struct {
	router Dispatcher
	chat   commands.Chatter
	logger zerolog.Logger

	mu    sync.Mutex
	busy  atomic.Bool
	lines atomic.Int64
}

func New(cfg Config) *Session {
	return &Session{router: cfg.Router, chat: cfg.Chat, logger: cfg.Logger}
}

// Line is a parsed input line.
type Line struct {
	Command bool
	Name    string
	Args    []string
	Text    string
}

// Parse splits a trimmed line. Lines starting with the prefix name a
// command (lowercased) followed by space separated arguments; anything
// else is free text for the gateway.
func Parse(raw string) (Line, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Line{}, false
	}
	if !strings.HasPrefix(text, Prefix) {
		return Line{Text: text}, true
	}
	fields := strings.Fields(strings.TrimPrefix(text, Prefix))
	l := Line{Command: true, Text: text}
	if len(fields) > 0 {
		l.Name = strings.ToLower(fields[0])
		l.Args = fields[1:]
	}
	return l, true
}

// LoadingText is the placeholder shown while raw is being processed.
func LoadingText(raw string) string {
	if l, ok := Parse(raw); ok && l.Command {
		return LoadingCommand
	}
	return LoadingChat
}

// IsClear reports whether res asks the presentation to wipe its scrollback.
func IsClear(res commands.Result) bool {
	return res.Success && res.Message == commands.ClearScreen
}

func (s *Session) Busy() bool { return s.busy.Load() }

// Lines is how many non-empty lines this session has accepted.
func (s *Session) Lines() int64 { return s.lines.Load() }

// Execute runs one line. Empty input yields a zero Result and is not
// counted. Execute never panics.
func (s *Session) Execute(ctx context.Context, raw string) commands.Result {
	l, ok := Parse(raw)
	if !ok {
		return commands.Result{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Store(true)
	defer s.busy.Store(false)
	s.lines.Add(1)

	if l.Command {
		return s.command(ctx, l)
	}
	return s.converse(ctx, l.Text)
}

func (s *Session) command(ctx context.Context, l Line) (res commands.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Str("command", l.Name).Msg("command dispatch panicked")
			res = commands.Result{Message: MsgCommandFailed}
		}
	}()
	return s.router.Dispatch(ctx, l.Name, l.Args)
}

func (s *Session) converse(ctx context.Context, text string) (res commands.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Msg("chat panicked")
			res = commands.Result{Message: MsgChatFailed}
		}
	}()
	out := s.chat.Chat(ctx, text, "")
	return commands.Result{Success: out.Success, Message: out.Message}
}
