package views

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PopupRenderer handles popup/modal rendering
type PopupRenderer struct {
	styles *Styles
}

// NewPopupRenderer creates a new popup renderer
func NewPopupRenderer(styles *Styles) *PopupRenderer {
	return &PopupRenderer{
		styles: styles,
	}
}

// RenderPopupOverlay centers the popup over a greyed-out copy of the
// main content
func (pr *PopupRenderer) RenderPopupOverlay(mainContent, popupContent string, height, width int, popupStyle lipgloss.Style) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	styledPopup := popupStyle.
		MaxWidth(width - 4).
		MaxHeight(height - 2).
		Render(popupContent)

	background := strings.Split(desaturateANSI(mainContent), "\n")
	popupLines := strings.Split(lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styledPopup), "\n")

	// Keep background rows that the popup leaves blank
	for i, line := range popupLines {
		if strings.TrimSpace(line) == "" && i < len(background) {
			popupLines[i] = background[i]
		}
	}
	return strings.Join(popupLines, "\n")
}

// ANSI escape sequence regex to strip styles/colors
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// desaturateANSI strips ANSI color/style codes and recolors text dim gray
func desaturateANSI(s string) string {
	lines := strings.Split(ansiRE.ReplaceAllString(s, ""), "\n")
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	for i, line := range lines {
		lines[i] = gray.Render(line)
	}
	return strings.Join(lines, "\n")
}
