package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

var lastDay = &store.Window{Since: &timeval.Parts{Hours: 24}}

type dashboardModel struct {
	svc    *tracker.Service
	timer  timerModel
	width  int
	height int

	nodes  []tracker.Node
	day    []tracker.Node
	cursor int
}

func newDashboardModel(svc *tracker.Service) dashboardModel {
	return dashboardModel{
		svc:   svc,
		timer: newTimerModel(svc),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	nodes []tracker.Node
	day   []tracker.Node
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		return dashboardDataMsg{
			nodes: d.svc.Tree(nil),
			day:   d.svc.Tree(lastDay),
		}
	}
}

func (d dashboardModel) selected() (tracker.Node, bool) {
	if d.cursor < 0 || d.cursor >= len(d.nodes) {
		return tracker.Node{}, false
	}
	return d.nodes[d.cursor], true
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.nodes = msg.nodes
		d.day = msg.day
		if d.cursor >= len(d.nodes) {
			d.cursor = max(0, len(d.nodes)-1)
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, d.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.nodes)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Start):
			n, ok := d.selected()
			if !ok {
				return d, statusCmd("Nothing to track yet. Press 2 to create an activity.", true)
			}
			return d.startTracking(n.ID)
		case key.Matches(msg, keys.Stop):
			if n, ok := d.selected(); ok && n.State == store.Active {
				return d.stopTracking(n.ID)
			}
			return d.stopTimer()
		case key.Matches(msg, keys.Enter):
			n, ok := d.selected()
			if !ok {
				return d, nil
			}
			if n.State == store.Active {
				return d.stopTracking(n.ID)
			}
			return d.startTracking(n.ID)
		}
	}
	return d, nil
}

func (d dashboardModel) startTracking(id string) (dashboardModel, tea.Cmd) {
	st, err := d.timer.start(id)
	if err != nil {
		return d, errorCmd(err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return trackingChangedMsg{status: st} },
	)
}

func (d dashboardModel) stopTracking(id string) (dashboardModel, tea.Cmd) {
	st, err := d.svc.Stop(d.timer.ctx(), id)
	d.timer.sync()
	if err != nil {
		return d, errorCmd(err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return trackingChangedMsg{status: st} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running {
		return d, nil
	}
	st, err := d.timer.stop()
	if err != nil {
		return d, errorCmd(err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return trackingChangedMsg{status: st} },
	)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderTreePanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running {
		timeDisplay := runningTimerStyle(d.timer.color).Width(w - 6).Render(formatDuration(d.timer.currentElapsed()))
		indicator := successStyle.Render("●  TRACKING")
		name := swatch(d.timer.color) + " " + highlightStyle.Render(d.timer.name)

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, name)
		return runningPanelStyle(d.timer.color).Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  IDLE")
	hint := mutedStyle.Render("Select a trackable and press s to start")

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTreePanel(w int) string {
	title := titleStyle.Render("Trackables")
	if len(d.nodes) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing here yet. Press 2 to create an activity or project."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-34s %10s %10s", "", "24h", "total")))
	for i, n := range d.nodes {
		cursor := "  "
		style := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		label := strings.Repeat("  ", n.Depth) + kindGlyph(n.Kind) + " " + n.Name
		label = nameStyle(n.Kind).Render(fmt.Sprintf("%-30s", truncate(label, 30)))
		day := "--:--:--"
		if i < len(d.day) && d.day[i].ID == n.ID {
			day = d.day[i].Total.String()
		}
		row := fmt.Sprintf("%s%s %s %s %10s %10s", cursor, stateMark(n.State), swatch(n.Color), label, day, n.Total.String())
		rows = append(rows, style.Render(row))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  s: start  x: stop  enter: toggle"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(0, n-1)]) + "…"
}
