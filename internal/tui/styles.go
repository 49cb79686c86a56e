package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle   = lipgloss.NewStyle().Foreground(colorSubtext0)
	badgeStyle    = lipgloss.NewStyle().Foreground(colorSurface0).Background(colorMauve).Padding(0, 1)
	warnBadge     = lipgloss.NewStyle().Foreground(colorSurface0).Background(colorWarning).Padding(0, 1)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorFocus).Background(colorSurface0)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay0)
	statusStyle   = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Underline(true)
	inactiveTab   = lipgloss.NewStyle().Foreground(colorSubtext0)
	disabledTab   = lipgloss.NewStyle().Foreground(colorOverlay0).Strikethrough(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(1, 2)
	filterLabel   = lipgloss.NewStyle().Foreground(colorOverlay0)
	filterValue   = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	descriptStyle = lipgloss.NewStyle().Foreground(colorText)
)

func removalStyle(name string) lipgloss.Style {
	switch name {
	case "Recommended":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "Advanced":
		return lipgloss.NewStyle().Foreground(colorPeach)
	case "Unsafe":
		return lipgloss.NewStyle().Foreground(colorError)
	}
	return lipgloss.NewStyle().Foreground(colorSubtext0)
}

func stateStyle(name string) lipgloss.Style {
	switch name {
	case "Enabled":
		return lipgloss.NewStyle().Foreground(colorText)
	case "Disabled":
		return lipgloss.NewStyle().Foreground(colorWarning)
	}
	return lipgloss.NewStyle().Foreground(colorOverlay0)
}
