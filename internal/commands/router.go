package commands

import (
	"context"
	crand "crypto/rand"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cogitator/internal/config"
	"cogitator/internal/gateway"
	"cogitator/internal/metrics"
	"cogitator/internal/storage"
)

const (
	// ClearScreen is the reserved message asking the presentation to wipe
	// its scrollback.
	ClearScreen = "clear-screen"

	MsgUnknownCommand = "Unknown command. Type /help for available commands."
	MsgHandlerPanic   = "Command failed to execute. The machine spirit is displeased."

	rule     = "━━━━━━━━━━━━━━━━━━━━━━━━━"
	longRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

type Result struct {
	Success bool
	Message string
}

func ok(msg string) Result   { return Result{Success: true, Message: msg} }
func fail(msg string) Result { return Result{Success: false, Message: msg} }

// panel renders the themed "icon TITLE / rule / body" block most commands reply with.
func panel(title, body string) string {
	return title + "\n" + rule + "\n" + body
}

type Handler func(ctx context.Context, args []string) Result

type Command struct {
	Name     string
	Category string
	Usage    string
	Summary  string
	Handler  Handler
}

type Chatter interface {
	Chat(ctx context.Context, prompt, systemOverride string) gateway.Result
}

type Profiles interface {
	Current() config.Profile
	Update(fn func(*config.Profile) error) (config.Profile, error)
}

type Config struct {
	Chat      Chatter
	Store     *storage.Store
	Profiles  Profiles
	BackupDir string
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
	// Rand seeds the generator behind randomised commands. Nil means a
	// ChaCha8 source seeded from crypto/rand.
	Rand rand.Source
}

// Router maps command names to handlers. A Router belongs to one session:
// it remembers which record ids the last listing showed.
type Router struct {
	chat      Chatter
	store     *storage.Store
	profiles  Profiles
	backupDir string
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	rng       *rand.Rand
	started   time.Time

	commands map[string]Command
	order    []string

	listingMu sync.Mutex
	listings  map[storage.Kind][]int64
}

func NewRouter(cfg Config) *Router {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		var seed [32]byte
		_, _ = crand.Read(seed[:])
		cfg.Rand = rand.NewChaCha8(seed)
	}
	r := &Router{
		chat:      cfg.Chat,
		store:     cfg.Store,
		profiles:  cfg.Profiles,
		backupDir: cfg.BackupDir,
		logger:    cfg.Logger,
		metrics:   m,
		now:       cfg.Now,
		rng:       rand.New(&lockedSource{src: cfg.Rand}),
		commands:  make(map[string]Command),
		listings:  make(map[storage.Kind][]int64),
	}
	r.started = r.now()
	r.registerAll()
	return r
}

func (r *Router) register(c Command) {
	if _, dup := r.commands[c.Name]; dup {
		panic("commands: duplicate command " + c.Name)
	}
	r.commands[c.Name] = c
	r.order = append(r.order, c.Name)
}

func (r *Router) registerAll() {
	r.registerPrompts()
	r.registerPuzzles()
	r.registerRecords()
	r.registerConfig()
	r.registerSystem()
	r.registerGadgets()
	r.registerGames()
	r.registerEncoders()
	r.registerText()
	r.registerDisplay()
	r.register(Command{Name: "clear", Category: catData, Summary: "Clear chat screen", Handler: func(context.Context, []string) Result {
		return ok(ClearScreen)
	}})
	r.register(Command{Name: "help", Category: catOther, Summary: "This command list", Handler: r.help})
}

// Lookup returns the registered command by exact name.
func (r *Router) Lookup(name string) (Command, bool) {
	c, found := r.commands[name]
	return c, found
}

// Names returns every registered name in sorted order.
func (r *Router) Names() []string {
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the named command. Unknown names and handler panics are
// turned into failure results; nothing escapes as an error.
func (r *Router) Dispatch(ctx context.Context, name string, args []string) (res Result) {
	name = strings.ToLower(name)
	cmd, found := r.commands[name]
	if !found {
		r.metrics.Commands.WithLabelValues("unknown", metrics.Outcome(false)).Inc()
		return fail(MsgUnknownCommand)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Str("command", name).Msg("command handler panicked")
			res = fail(MsgHandlerPanic)
		}
		r.metrics.Commands.WithLabelValues(name, metrics.Outcome(res.Success)).Inc()
	}()

	return cmd.Handler(ctx, args)
}

func (r *Router) rememberListing(kind storage.Kind, recs []storage.Record) {
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	r.listingMu.Lock()
	r.listings[kind] = ids
	r.listingMu.Unlock()
}

// listedID returns the id shown at 1-based pos in the last listing of kind.
func (r *Router) listedID(kind storage.Kind, pos int) (id int64, listed bool, inRange bool) {
	r.listingMu.Lock()
	defer r.listingMu.Unlock()
	ids, listed := r.listings[kind]
	if !listed {
		return 0, false, false
	}
	if pos < 1 || pos > len(ids) {
		return 0, true, false
	}
	return ids[pos-1], true, true
}

// lockedSource lets handlers running on different goroutines share one source.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (r *Router) pick(items []string) string {
	return items[r.rng.IntN(len(items))]
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func argsOr(args []string, def string) string {
	if len(args) == 0 {
		return def
	}
	return joinArgs(args)
}

func firstOr(args []string, def string) string {
	if len(args) == 0 || args[0] == "" {
		return def
	}
	return args[0]
}
