package tui

import "github.com/charmbracelet/lipgloss"

// Forge palette: brass on oil-black with a warning red.
var (
	brass     = lipgloss.Color("#C9A227")
	parchment = lipgloss.Color("#E8DCC0")
	oxide     = lipgloss.Color("#B3261E")
	verdigris = lipgloss.Color("#4E9F8A")
	soot      = lipgloss.Color("#5C5346")
)

type styles struct {
	header    lipgloss.Style
	stat      lipgloss.Style
	userTitle lipgloss.Style
	aiTitle   lipgloss.Style
	errTitle  lipgloss.Style
	sysTitle  lipgloss.Style
	stamp     lipgloss.Style
	errBody   lipgloss.Style
	loading   lipgloss.Style
	footer    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(brass).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(soot),
		stat:      lipgloss.NewStyle().Foreground(parchment),
		userTitle: lipgloss.NewStyle().Bold(true).Foreground(verdigris),
		aiTitle:   lipgloss.NewStyle().Bold(true).Foreground(brass),
		errTitle:  lipgloss.NewStyle().Bold(true).Foreground(oxide),
		sysTitle:  lipgloss.NewStyle().Bold(true).Foreground(soot),
		stamp:     lipgloss.NewStyle().Foreground(soot),
		errBody:   lipgloss.NewStyle().Foreground(oxide),
		loading:   lipgloss.NewStyle().Italic(true).Foreground(brass),
		footer:    lipgloss.NewStyle().Foreground(soot),
	}
}
