package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/xela07ax/mdm-merge-console/internal/present"
)

type theme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorBox    lipgloss.Style
	success     lipgloss.Style
	helpText    lipgloss.Style
	key         lipgloss.Style
	inputLabel  lipgloss.Style
	badges      map[present.Category]lipgloss.Style
}

func newTheme() theme {
	blue := lipgloss.Color("#3b82f6")
	green := lipgloss.Color("#22c55e")
	red := lipgloss.Color("#ef4444")
	amber := lipgloss.Color("#f59e0b")
	gray := lipgloss.Color("#9ca3af")
	text := lipgloss.Color("#f3f4f6")

	return theme{
		root: lipgloss.NewStyle().Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0b1220")).
			Background(blue).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(gray).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Bold(true).Foreground(blue),
		footer:     lipgloss.NewStyle().Foreground(gray),
		status:     lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorBox: lipgloss.NewStyle().
			Foreground(red).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(red).
			Padding(0, 1),
		success:    lipgloss.NewStyle().Foreground(green).Bold(true),
		helpText:   lipgloss.NewStyle().Foreground(gray),
		key:        lipgloss.NewStyle().Foreground(amber).Bold(true),
		inputLabel: lipgloss.NewStyle().Foreground(gray),
		badges: map[present.Category]lipgloss.Style{
			present.Positive:       lipgloss.NewStyle().Foreground(green).Bold(true),
			present.Negative:       lipgloss.NewStyle().Foreground(red).Bold(true),
			present.NeutralWarning: lipgloss.NewStyle().Foreground(amber).Bold(true),
			present.NeutralUnknown: lipgloss.NewStyle().Foreground(gray),
		},
	}
}

func (t theme) badge(category string, text string) string {
	style, ok := t.badges[present.Category(category)]
	if !ok {
		style = t.badges[present.NeutralUnknown]
	}
	return style.Render(text)
}
