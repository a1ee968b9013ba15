package tui

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var spoilerPattern = regexp.MustCompile(`(?s)\|\|(.*?)\|\|`)

// maskSpoilers hides the inner text of every ||spoiler|| behind blocks of
// the same rune width. With reveal set the markers are dropped instead.
func maskSpoilers(s string, reveal bool) string {
	return spoilerPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := spoilerPattern.FindStringSubmatch(match)[1]
		if reveal {
			return inner
		}
		var b strings.Builder
		for _, r := range inner {
			if r == '\n' {
				b.WriteRune(r)
				continue
			}
			b.WriteRune('█')
		}
		return b.String()
	})
}

func hasSpoiler(s string) bool {
	return spoilerPattern.MatchString(s)
}

func (m Model) View() string {
	if !m.ready {
		return "Awakening the machine spirit..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	stats := m.styles.stat.Render(fmt.Sprintf("Spirit: %s  Messages: %d",
		strings.ToUpper(m.personality()), m.messages))
	return m.styles.header.Width(max(m.width, 1)).Render("⚙ COGITATOR ⚙  " + stats)
}

func (m Model) renderFooter() string {
	hint := "enter send · ctrl+r reveal · ctrl+l clear · pgup/pgdn scroll · ctrl+c quit"
	if m.processing {
		hint = "the machine spirit is occupied · input held"
	}
	return m.input.View() + "\n" + m.styles.footer.Render(hint)
}

func (m Model) renderHistory() string {
	var b strings.Builder
	for _, e := range m.history {
		b.WriteString(m.renderEntry(e))
		b.WriteString("\n")
	}
	if m.processing {
		b.WriteString(m.title(roleAI, m.now().Format("15:04:05")))
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + m.styles.loading.Render(m.loading))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) title(r role, stamp string) string {
	var label string
	style := m.styles.aiTitle
	switch r {
	case roleUser:
		label, style = "👤 TECH-ADEPT", m.styles.userTitle
	case roleAI:
		label = "⚙️ MACHINE SPIRIT"
	case roleError:
		label, style = "💀 SERVO SKULL", m.styles.errTitle
	default:
		label, style = "☩ COGITATOR", m.styles.sysTitle
	}
	return style.Render(label) + " " + m.styles.stamp.Render(stamp)
}

func (m Model) renderEntry(e entry) string {
	text := maskSpoilers(e.text, m.revealed)
	if hasSpoiler(e.text) && !m.revealed {
		text += "\n\n_ctrl+r to reveal_"
	}
	var body string
	switch e.role {
	case roleUser:
		body = text
	case roleError:
		body = m.styles.errBody.Render(text)
	default:
		body = m.safeRenderMarkdown(text)
	}
	return m.title(e.role, e.at.Format("15:04:05")) + "\n" + strings.TrimRight(body, "\n") + "\n"
}

// safeRenderMarkdown falls back to the raw text when no renderer exists or
// glamour fails on unusual input.
func (m Model) safeRenderMarkdown(content string) (out string) {
	if m.renderer == nil || !utf8.ValidString(content) {
		return content
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn().Interface("panic", r).Msg("markdown render panicked")
			out = content
		}
	}()
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
