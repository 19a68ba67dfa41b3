package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

type reportWindow struct {
	label  string
	window *store.Window
}

var reportWindows = []reportWindow{
	{"24h", &store.Window{Since: &timeval.Parts{Hours: 24}}},
	{"7d", &store.Window{Since: &timeval.Parts{Hours: 7 * 24}}},
	{"30d", &store.Window{Since: &timeval.Parts{Hours: 30 * 24}}},
	{"All", nil},
}

type reportsModel struct {
	svc    *tracker.Service
	width  int
	height int

	mode  int // index into reportWindows
	roots []tracker.Node
	spans []store.SpanEntry

	chart barchart.Model
}

func newReportsModel(svc *tracker.Service) reportsModel {
	return reportsModel{
		svc:   svc,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	roots []tracker.Node
	spans []store.SpanEntry
}

func (r reportsModel) refresh() tea.Cmd {
	w := reportWindows[r.mode].window
	return func() tea.Msg {
		var roots []tracker.Node
		for _, n := range r.svc.Tree(w) {
			if n.Depth == 0 {
				roots = append(roots, n)
			}
		}
		return reportsDataMsg{roots: roots, spans: r.svc.WithinSpan(w)}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.roots = msg.roots
		r.spans = msg.spans
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.mode = (r.mode + len(reportWindows) - 1) % len(reportWindows)
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			r.mode = (r.mode + 1) % len(reportWindows)
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, n := range r.roots {
		style := lipgloss.NewStyle().Foreground(accent(n.Color))
		bars = append(bars, barchart.BarData{
			Label: truncate(n.Name, 8),
			Values: []barchart.BarValue{{
				Name:  n.Name,
				Value: n.Total.TotalSeconds() / 3600,
				Style: style,
			}},
		})
	}
	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorFrame)}},
		}}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for i, rw := range reportWindows {
		if i == r.mode {
			tabs = append(tabs, activeTabStyle.Render(rw.label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(rw.label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	nav := mutedStyle.Render("  ←/→: change window")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSpanTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSpanTable(w int) string {
	if len(r.spans) == 0 {
		return mutedStyle.Render("  No intervals in this window")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %-9s %10s %10s", "Trackable", "Kind", "Intervals", "Time")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 60))))

	for _, s := range r.spans {
		rows = append(rows, fmt.Sprintf("  %s %-26s %-9s %10d %10s",
			swatch(s.Trackable.Color()), truncate(s.Trackable.Name(), 26), s.Trackable.Kind(), len(s.Intervals), s.Selected.String(),
		))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	var items []string
	for _, n := range r.roots {
		items = append(items, fmt.Sprintf("%s %s %s", swatch(n.Color), n.Name, mutedStyle.Render(formatHours(n.Total.TotalSeconds()))))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
