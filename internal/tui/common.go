package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewManage
	viewReports
)

var viewNames = []string{"Dashboard", "Manage", "Reports"}

// --- Messages ---

type trackingChangedMsg struct {
	status tracker.Status
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func errorCmd(err error) tea.Cmd {
	return statusCmd(fmt.Sprintf("Error: %v", err), true)
}

// describeStatus renders a start or stop result for the status line.
func describeStatus(st tracker.Status) string {
	switch st.Action {
	case tracker.ActionStart:
		if st.Message != "" && st.Message != "success" {
			return st.Message
		}
		return "Tracking " + st.Name
	case tracker.ActionStop:
		if st.CurrentInterval != nil {
			return fmt.Sprintf("Stopped %s after %s", st.Name, timeval.FromParts(*st.CurrentInterval, timeval.HMS))
		}
		return "Stopped " + st.Name
	}
	return st.Message
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(secs float64) string {
	return fmt.Sprintf("%.1fh", secs/3600)
}

func kindGlyph(k store.Kind) string {
	if k == store.KindProject {
		return "▸"
	}
	return "·"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
