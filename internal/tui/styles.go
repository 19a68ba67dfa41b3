package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/actra/internal/store"
)

// Color palette. Trackables bring their own colors; these frame them.
var (
	colorBrand   = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#6B7089")
	colorRunning = lipgloss.Color("#3DDC97")
	colorError   = lipgloss.Color("#FF5C7A")
	colorFg      = lipgloss.Color("#D8DEE9")
	colorFrame   = lipgloss.Color("#3B4252")
	colorFocus   = lipgloss.Color("#88C0D0")
)

// Styles
var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorBrand).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Padding(1, 2)

	activePanelStyle = panelStyle.
				BorderForeground(colorBrand)

	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMuted).
			Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorRunning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorFocus)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorFocus).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

func accent(c store.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}

// swatch is a dot in the trackable's own color.
func swatch(c store.Color) string {
	return lipgloss.NewStyle().Foreground(accent(c)).Render("●")
}

// runningPanelStyle frames the timer in the color of what is running.
func runningPanelStyle(c store.Color) lipgloss.Style {
	return panelStyle.BorderForeground(accent(c))
}

func runningTimerStyle(c store.Color) lipgloss.Style {
	return timerStyle.Foreground(accent(c))
}

// nameStyle sets projects in bold so groups stand out in the tree.
func nameStyle(k store.Kind) lipgloss.Style {
	if k == store.KindProject {
		return lipgloss.NewStyle().Bold(true)
	}
	return lipgloss.NewStyle()
}

func stateMark(s store.State) string {
	if s == store.Active {
		return successStyle.Render("●")
	}
	return " "
}
