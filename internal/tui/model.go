// Package tui is the interactive terminal front end: a scrollback of
// machine spirit exchanges above a single input line.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"cogitator/internal/commands"
	"cogitator/internal/config"
	"cogitator/internal/shell"
)

const (
	greeting = "**COGITATOR ONLINE.** The machine spirit stirs and awaits your commands, Tech-Adept.\n\nType `/help` for the sacred protocols. `ctrl+r` reveals veiled text, `ctrl+l` clears the record."

	headerHeight = 2
	footerHeight = 3
)

// Executor runs one input line. shell.Session satisfies it.
type Executor interface {
	Execute(ctx context.Context, line string) commands.Result
}

// ProfileSource supplies the persisted profile shown in the header.
type ProfileSource interface {
	Current() config.Profile
}

type Config struct {
	Session  Executor
	Profiles ProfileSource
	Logger   zerolog.Logger
	Now      func() time.Time
}

type role int

const (
	roleSystem role = iota
	roleUser
	roleAI
	roleError
)

type entry struct {
	role role
	text string
	at   time.Time
}

type resultMsg struct {
	res commands.Result
}

type Model struct {
	ctx      context.Context
	exec     Executor
	profiles ProfileSource
	logger   zerolog.Logger
	now      func() time.Time
	styles   styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	history    []entry
	processing bool
	loading    string
	revealed   bool
	messages   int

	width  int
	height int
	ready  bool
}

func New(ctx context.Context, cfg Config) Model {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "Speak to the machine spirit, or /help"
	ti.Prompt = "⚙ > "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = defaultStyles().loading

	return Model{
		ctx:      ctx,
		exec:     cfg.Session,
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
		now:      now,
		styles:   defaultStyles(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		history:  []entry{{role: roleSystem, text: greeting, at: now()}},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.viewport.Width = m.width
		m.viewport.Height = max(m.height-headerHeight-footerHeight, 1)
		m.input.Width = max(m.width-6, 10)
		if m.width > 8 {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.width-4),
			)
			if err != nil {
				m.logger.Warn().Err(err).Msg("markdown renderer unavailable")
			} else {
				m.renderer = r
			}
		}
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.clear()
			return m, nil
		case tea.KeyCtrlR:
			m.revealed = !m.revealed
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}

	case resultMsg:
		m.processing = false
		m.loading = ""
		switch {
		case shell.IsClear(msg.res):
			m.clear()
		case msg.res.Success:
			m.push(roleAI, msg.res.Message)
		default:
			m.push(roleError, msg.res.Message)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input unless a line is already in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.processing {
		return m, nil
	}
	line, ok := shell.Parse(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.push(roleUser, line.Text)
	m.messages++
	m.processing = true
	m.loading = shell.LoadingText(line.Text)
	m.refresh()
	m.logger.Debug().Bool("command", line.Command).Str("name", line.Name).Msg("line submitted")
	return m, tea.Batch(m.spinner.Tick, m.execute(line.Text))
}

func (m Model) execute(line string) tea.Cmd {
	exec, ctx := m.exec, m.ctx
	return func() tea.Msg {
		return resultMsg{res: exec.Execute(ctx, line)}
	}
}

func (m *Model) push(r role, text string) {
	m.history = append(m.history, entry{role: r, text: text, at: m.now()})
	m.refresh()
}

// clear drops the scrollback, keeping the greeting.
func (m *Model) clear() {
	kept := make([]entry, 0, 1)
	for _, e := range m.history {
		if e.role == roleSystem {
			kept = append(kept, e)
		}
	}
	m.history = kept
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) personality() string {
	if m.profiles == nil {
		return config.PersonalitySnarky
	}
	return m.profiles.Current().Personality
}
