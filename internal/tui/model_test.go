package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"cogitator/internal/commands"
	"cogitator/internal/config"
	"cogitator/internal/shell"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeExec struct {
	mu    sync.Mutex
	lines []string
	res   commands.Result
}

func (f *fakeExec) Execute(_ context.Context, line string) commands.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return f.res
}

type fixedProfile struct{ p config.Profile }

func (f fixedProfile) Current() config.Profile { return f.p }

func newTestModel(exec *fakeExec) Model {
	p := config.DefaultProfile()
	p.Personality = config.PersonalityLazy
	return New(context.Background(), Config{
		Session:  exec,
		Profiles: fixedProfile{p},
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return fixedNow },
	})
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func typeLine(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// results runs cmd and every command it batches, collecting result messages.
func results(cmd tea.Cmd) []resultMsg {
	if cmd == nil {
		return nil
	}
	var out []resultMsg
	switch msg := cmd().(type) {
	case resultMsg:
		out = append(out, msg)
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, results(c)...)
		}
	}
	return out
}

func TestWindowSize(t *testing.T) {
	m := newTestModel(&fakeExec{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 || !m.ready {
		t.Fatalf("unexpected size state: %d x %d ready=%v", m.width, m.height, m.ready)
	}
	if m.viewport.Height != 40-headerHeight-footerHeight {
		t.Fatalf("viewport height = %d", m.viewport.Height)
	}
	if m.renderer == nil {
		t.Fatalf("expected a markdown renderer after resize")
	}
}

func TestWindowSizeDegenerate(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on degenerate size: %v", r)
		}
	}()
	m := newTestModel(&fakeExec{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 0, Height: 0})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: -1, Height: -1})
	_ = m.View()
}

func TestViewBeforeResize(t *testing.T) {
	m := newTestModel(&fakeExec{})
	if got := m.View(); got != "Awakening the machine spirit..." {
		t.Fatalf("unexpected view: %q", got)
	}
}

func TestSubmitRunsLineAndGatesInput(t *testing.T) {
	exec := &fakeExec{res: commands.Result{Success: true, Message: "Praise the Omnissiah."}}
	m := newTestModel(exec)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = typeLine(t, m, "/joke")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.processing || m.loading != shell.LoadingCommand {
		t.Fatalf("expected processing with command loading text, got %v %q", m.processing, m.loading)
	}
	if m.messages != 1 || m.input.Value() != "" {
		t.Fatalf("messages=%d input=%q", m.messages, m.input.Value())
	}
	if last := m.history[len(m.history)-1]; last.role != roleUser || last.text != "/joke" {
		t.Fatalf("unexpected user entry: %+v", last)
	}

	// A second line while the first is in flight is held.
	m = typeLine(t, m, "again")
	m, held := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if held != nil || m.messages != 1 {
		t.Fatalf("enter during processing should be ignored")
	}
	if m.input.Value() != "again" {
		t.Fatalf("held input was lost: %q", m.input.Value())
	}

	got := results(cmd)
	if len(got) != 1 || len(exec.lines) != 1 || exec.lines[0] != "/joke" {
		t.Fatalf("unexpected execution: %+v lines=%v", got, exec.lines)
	}
	m, _ = send(t, m, got[0])
	if m.processing {
		t.Fatalf("still processing after result")
	}
	if last := m.history[len(m.history)-1]; last.role != roleAI || last.text != "Praise the Omnissiah." {
		t.Fatalf("unexpected reply entry: %+v", last)
	}
	if !strings.Contains(m.viewport.View(), "MACHINE SPIRIT") {
		t.Fatalf("reply title missing from viewport")
	}
}

func TestChatLoadingText(t *testing.T) {
	m := newTestModel(&fakeExec{})
	m = typeLine(t, m, "hello spirit")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.loading != shell.LoadingChat {
		t.Fatalf("loading = %q", m.loading)
	}
}

func TestEmptyEnterIgnored(t *testing.T) {
	exec := &fakeExec{}
	m := newTestModel(exec)
	m = typeLine(t, m, "   ")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.processing || m.messages != 0 || len(m.history) != 1 {
		t.Fatalf("blank input should do nothing")
	}
}

func TestFailureRendersAsServoSkull(t *testing.T) {
	m := newTestModel(&fakeExec{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = send(t, m, resultMsg{res: commands.Result{Message: commands.MsgUnknownCommand}})
	last := m.history[len(m.history)-1]
	if last.role != roleError {
		t.Fatalf("expected error role, got %v", last.role)
	}
	if out := m.renderEntry(last); !strings.Contains(out, "SERVO SKULL") || !strings.Contains(out, "03:04:05") {
		t.Fatalf("unexpected error entry: %q", out)
	}
}

func TestClearSentinelAndShortcut(t *testing.T) {
	m := newTestModel(&fakeExec{})
	m, _ = send(t, m, resultMsg{res: commands.Result{Success: true, Message: "one"}})
	m, _ = send(t, m, resultMsg{res: commands.Result{Success: true, Message: "two"}})
	m, _ = send(t, m, resultMsg{res: commands.Result{Success: true, Message: commands.ClearScreen}})
	if len(m.history) != 1 || m.history[0].role != roleSystem {
		t.Fatalf("clear sentinel left %d entries", len(m.history))
	}

	m, _ = send(t, m, resultMsg{res: commands.Result{Success: true, Message: "three"}})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.history) != 1 {
		t.Fatalf("ctrl+l left %d entries", len(m.history))
	}
}

func TestMaskSpoilers(t *testing.T) {
	cases := []struct {
		in, masked, revealed string
	}{
		{"plain", "plain", "plain"},
		{"answer: ||Terra||!", "answer: █████!", "answer: Terra!"},
		{"||a|| and ||bé||", "█ and ██", "a and bé"},
		{"||line one\nline two||", "████████\n████████", "line one\nline two"},
		{"||unterminated", "||unterminated", "||unterminated"},
	}
	for _, tc := range cases {
		if got := maskSpoilers(tc.in, false); got != tc.masked {
			t.Fatalf("mask(%q) = %q want %q", tc.in, got, tc.masked)
		}
		if got := maskSpoilers(tc.in, true); got != tc.revealed {
			t.Fatalf("reveal(%q) = %q want %q", tc.in, got, tc.revealed)
		}
	}
}

func TestRevealToggle(t *testing.T) {
	m := newTestModel(&fakeExec{})
	m, _ = send(t, m, resultMsg{res: commands.Result{Success: true, Message: "The answer: ||Terra||"}})
	e := m.history[len(m.history)-1]
	if out := m.renderEntry(e); strings.Contains(out, "Terra") || !strings.Contains(out, "ctrl+r") {
		t.Fatalf("spoiler leaked: %q", out)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if out := m.renderEntry(e); !strings.Contains(out, "Terra") {
		t.Fatalf("reveal did not show the answer: %q", out)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.revealed {
		t.Fatalf("second ctrl+r should hide again")
	}
}

func TestHeaderShowsPersonalityAndCount(t *testing.T) {
	m := newTestModel(&fakeExec{res: commands.Result{Success: true, Message: "ok"}})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = typeLine(t, m, "hi")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	header := m.renderHeader()
	if !strings.Contains(header, "LAZY") || !strings.Contains(header, "Messages: 1") {
		t.Fatalf("unexpected header: %q", header)
	}
}
