package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/gavel/go/internal/flash"
)

// Catppuccin Mocha
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	labelStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	ownBidStyle  = lipgloss.NewStyle().Foreground(colorPeach).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	selectStyle  = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	endedStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(colorOverlay1).Italic(true)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
)

var flashStyles = map[flash.Level]lipgloss.Style{
	flash.LevelInfo:    lipgloss.NewStyle().Foreground(colorTeal),
	flash.LevelSuccess: lipgloss.NewStyle().Foreground(colorGreen),
	flash.LevelWarning: lipgloss.NewStyle().Foreground(colorYellow),
	flash.LevelError:   lipgloss.NewStyle().Foreground(colorRed),
}

func renderFlash(board *flash.Board) string {
	msgs := board.Messages()
	if len(msgs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, flashStyles[m.Level].Render("● "+m.Text))
	}
	return strings.Join(lines, "\n")
}
