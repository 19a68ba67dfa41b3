package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/actra/internal/logging"
	"github.com/sadopc/actra/internal/persist"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*tracker.Service, *fakeClock) {
	t.Helper()
	queue := persist.NewQueue(persist.NewMemoryBackend(), logging.Discard())
	t.Cleanup(func() { queue.Close() })

	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := tracker.New(queue, logging.Discard(), store.WithClock(clock.now))
	if !svc.Load(context.Background()) {
		t.Fatal("load failed")
	}
	return svc, clock
}

func mustCreate(t *testing.T, svc *tracker.Service, name string, project bool) string {
	t.Helper()
	var (
		id  string
		err error
	)
	if project {
		id, err = svc.CreateProject(context.Background(), name, store.NewColor(10, 20, 30))
	} else {
		id, err = svc.CreateActivity(context.Background(), name, store.NewColor(10, 20, 30))
	}
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return id
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func statusOf(t *testing.T, cmd tea.Cmd) statusMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok {
		t.Fatalf("expected statusMsg, got %T", cmd())
	}
	return msg
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartStop(t *testing.T) {
	svc, clock := newTestService(t)
	id := mustCreate(t, svc, "Dev", false)

	tm := newTimerModel(svc)
	if tm.running {
		t.Fatal("timer should start stopped")
	}

	st, err := tm.start(id)
	if err != nil {
		t.Fatal(err)
	}
	if st.Action != tracker.ActionStart {
		t.Fatalf("action = %q", st.Action)
	}
	if !tm.running || tm.id != id || tm.name != "Dev" {
		t.Fatalf("timer not tracking Dev: %+v", tm)
	}

	clock.advance(90 * time.Second)
	tm.tick()
	if got := tm.currentElapsed(); got != 90*time.Second {
		t.Fatalf("elapsed = %v, want 90s", got)
	}

	st, err = tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentInterval == nil || *st.CurrentInterval != (timeval.Parts{Mins: 1, Seconds: 30}) {
		t.Fatalf("stop interval = %+v", st.CurrentInterval)
	}
	if tm.running {
		t.Fatal("timer should be stopped")
	}
	if tm.currentElapsed() != 0 {
		t.Fatal("stopped timer should report 0")
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc)

	st, err := tm.stop()
	if err != nil {
		t.Fatal(err)
	}
	if st.Action != "" {
		t.Fatal("stop on stopped timer should be a no-op")
	}
}

func TestTimerFollowsService(t *testing.T) {
	svc, _ := newTestService(t)
	id := mustCreate(t, svc, "Dev", false)
	tm := newTimerModel(svc)

	if _, err := svc.Start(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	tm.tick()
	if !tm.running {
		t.Fatal("timer should pick up a session started elsewhere")
	}

	if _, err := svc.Stop(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	tm.tick()
	if tm.running {
		t.Fatal("timer should notice the session ended")
	}
}

func TestTimerStartUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc)
	if _, err := tm.start("missing"); err == nil {
		t.Fatal("expected error for unknown trackable")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0, "0.0h"},
		{1800, "0.5h"},
		{3600, "1.0h"},
		{5400, "1.5h"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.secs); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if min(1, 2) != 1 || min(2, 1) != 1 {
		t.Fatal("min wrong")
	}
	if max(1, 2) != 2 || max(2, 1) != 2 {
		t.Fatal("max wrong")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate kept = %q", got)
	}
	if got := truncate("a long trackable name", 6); got != "a lon…" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestDescribeStatus(t *testing.T) {
	tests := []struct {
		st   tracker.Status
		want string
	}{
		{tracker.Status{Name: "a", Action: tracker.ActionStart, Message: "success"}, "Tracking a"},
		{tracker.Status{Name: "a", Action: tracker.ActionStart, Message: "already tracking a"}, "already tracking a"},
		{tracker.Status{Name: "a", Action: tracker.ActionStop, CurrentInterval: &timeval.Parts{Mins: 1, Seconds: 30}}, "Stopped a after 00:01:30"},
		{tracker.Status{Name: "a", Action: tracker.ActionStop}, "Stopped a"},
	}
	for _, tt := range tests {
		if got := describeStatus(tt.st); got != tt.want {
			t.Errorf("describeStatus(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestViewNames(t *testing.T) {
	expected := []string{"Dashboard", "Manage", "Reports"}
	if len(viewNames) != len(expected) {
		t.Fatalf("expected %d view names, got %d", len(expected), len(viewNames))
	}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
	if viewDashboard != 0 || viewManage != 1 || viewReports != 2 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Dashboard model
// ============================================================

func TestDashboardInit(t *testing.T) {
	svc, _ := newTestService(t)
	d := newDashboardModel(svc)

	if d.isRunning() {
		t.Fatal("dashboard timer should not be running initially")
	}
	if d.elapsed() != 0 {
		t.Fatal("dashboard should have 0 elapsed initially")
	}
}

func TestDashboardLoadsTree(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	p := mustCreate(t, svc, "p", true)
	svc.AddMember(context.Background(), p, a)

	d := newDashboardModel(svc)
	d, _ = d.update(d.loadData()())
	if len(d.nodes) != 2 || len(d.day) != 2 {
		t.Fatalf("nodes = %d, day = %d, want 2 each", len(d.nodes), len(d.day))
	}
	if d.nodes[0].Name != "p" || d.nodes[1].Depth != 1 {
		t.Fatalf("unexpected tree: %+v", d.nodes)
	}
}

func TestDashboardStartStopKeys(t *testing.T) {
	svc, clock := newTestService(t)
	mustCreate(t, svc, "a", false)

	d := newDashboardModel(svc)
	d.setSize(120, 40)
	d, _ = d.update(d.loadData()())

	d, cmd := d.update(runeKey('s'))
	if cmd == nil || !d.isRunning() {
		t.Fatal("s should start the selected trackable")
	}

	clock.advance(time.Minute)
	d, _ = d.update(tickMsg(clock.t))
	if d.elapsed() != time.Minute {
		t.Fatalf("elapsed = %v", d.elapsed())
	}
	if !strings.Contains(d.view(), "TRACKING") {
		t.Fatal("view should show the running timer")
	}

	d, _ = d.update(runeKey('x'))
	if d.isRunning() {
		t.Fatal("x should stop tracking")
	}
}

func TestDashboardEnterToggles(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "a", false)

	d := newDashboardModel(svc)
	d, _ = d.update(d.loadData()())
	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !d.isRunning() {
		t.Fatal("enter should start")
	}
	d, _ = d.update(d.loadData()())
	d, _ = d.update(tea.KeyMsg{Type: tea.KeyEnter})
	if d.isRunning() {
		t.Fatal("enter on an active row should stop")
	}
}

func TestDashboardStartWithNothing(t *testing.T) {
	svc, _ := newTestService(t)
	d := newDashboardModel(svc)
	_, cmd := d.update(runeKey('s'))
	if msg := statusOf(t, cmd); !msg.isError {
		t.Fatal("starting with no trackables should report an error")
	}
}

// ============================================================
// Manage model
// ============================================================

func TestManageRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "b", false)
	mustCreate(t, svc, "a", true)

	m := newManageModel(svc)
	m.setSize(120, 40)
	m, _ = m.update(m.refresh()())
	if len(m.trackables) != 2 || m.trackables[0].Name() != "a" {
		t.Fatalf("unexpected list: %d", len(m.trackables))
	}
	if !strings.Contains(m.view(), "project") {
		t.Fatal("list should show kinds")
	}
}

func TestManageApplyNew(t *testing.T) {
	svc, _ := newTestService(t)
	m := newManageModel(svc)

	m.formType = formNew
	*m.formName = "  Writing "
	*m.formKind = store.KindProject.String()
	*m.formColor = "#FF0000"
	if msg := statusOf(t, m.apply()); msg.isError {
		t.Fatalf("create failed: %s", msg.text)
	}

	id, err := svc.Resolve("Writing")
	if err != nil {
		t.Fatal(err)
	}
	got := svc.Get(id)
	if !got.IsProject() || got.Color() != store.NewColor(255, 0, 0) {
		t.Fatalf("created %+v", got)
	}

	if msg := statusOf(t, m.apply()); !msg.isError {
		t.Fatal("duplicate name should fail")
	}
}

func TestManageApplyMemberRejectsCycle(t *testing.T) {
	svc, _ := newTestService(t)
	p := mustCreate(t, svc, "p", true)
	q := mustCreate(t, svc, "q", true)

	m := newManageModel(svc)
	m.formType = formMember
	m.targetID = q
	*m.formTarget = p
	if msg := statusOf(t, m.apply()); msg.isError {
		t.Fatalf("add failed: %s", msg.text)
	}

	m.targetID = p
	*m.formTarget = q
	if msg := statusOf(t, m.apply()); !msg.isError {
		t.Fatal("cycle should be rejected")
	}
}

func TestManageApplyRenameAndUnlink(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	p := mustCreate(t, svc, "p", true)
	svc.AddMember(context.Background(), p, a)

	m := newManageModel(svc)
	m.formType = formRename
	m.targetID = a
	*m.formName = "renamed"
	*m.formColor = "#00FF00"
	statusOf(t, m.apply())
	if got := svc.Get(a); got.Name() != "renamed" || got.Color() != store.NewColor(0, 255, 0) {
		t.Fatalf("rename: %s %s", got.Name(), got.Color().Hex())
	}

	m.formType = formUnlink
	m.targetID = p
	*m.formSelected = []string{a}
	statusOf(t, m.apply())
	members, _ := svc.ProjectMembers(p)
	if len(members) != 0 {
		t.Fatal("member should be removed")
	}
}

func TestManageApplyJoin(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	b := mustCreate(t, svc, "b", false)

	m := newManageModel(svc)
	m.formType = formJoin
	m.targetID = a
	*m.formSelected = []string{b}
	*m.formName = "ab"
	if msg := statusOf(t, m.apply()); msg.isError {
		t.Fatalf("join failed: %s", msg.text)
	}
	if _, err := svc.Resolve("ab"); err != nil {
		t.Fatal(err)
	}
	if svc.Get(a) != nil || svc.Get(b) != nil {
		t.Fatal("originals should be gone")
	}
}

func TestManageApplyConvert(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "a", false)

	m := newManageModel(svc)
	m.formType = formConvert
	m.targetID = a

	*m.formConfirm = false
	if cmd := m.apply(); cmd != nil {
		t.Fatal("unconfirmed convert should do nothing")
	}

	*m.formConfirm = true
	statusOf(t, m.apply())
	if !svc.Get(a).IsProject() {
		t.Fatal("activity should now be a project")
	}
	statusOf(t, m.apply())
	if svc.Get(a).IsProject() {
		t.Fatal("project should convert back")
	}
}

func TestManageApplyDelete(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "a", false)

	m := newManageModel(svc)
	m.formType = formDelete
	m.targetID = a
	*m.formConfirm = true
	statusOf(t, m.apply())
	if svc.Get(a) != nil {
		t.Fatal("trackable should be deleted")
	}
}

func TestManageApplyTime(t *testing.T) {
	svc, clock := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	svc.Start(context.Background(), a)
	clock.advance(time.Minute)
	svc.Stop(context.Background(), a)

	m := newManageModel(svc)
	m.formType = formTime
	m.targetID = a
	*m.formName = "1h30m"
	msg := statusOf(t, m.apply())
	if msg.isError || !strings.Contains(msg.text, "01:30:00") {
		t.Fatalf("status = %+v", msg)
	}
	total, _ := svc.Total(a, nil, timeval.S)
	if total.TotalSeconds() != 5400 {
		t.Fatalf("total = %v", total.TotalSeconds())
	}

	*m.formName = "soon"
	if msg := statusOf(t, m.apply()); !msg.isError {
		t.Fatal("bad duration should fail")
	}
}

func TestManageFormsOpenAndCancel(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "a", false)
	mustCreate(t, svc, "p", true)

	m := newManageModel(svc)
	m.setSize(120, 40)
	m, _ = m.update(m.refresh()())

	m, _ = m.update(runeKey('n'))
	if !m.formActive || m.formType != formNew {
		t.Fatal("n should open the new form")
	}
	if !strings.Contains(m.view(), "New Trackable") {
		t.Fatal("form title missing")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive {
		t.Fatal("esc should cancel the form")
	}

	m, _ = m.update(runeKey('m'))
	if !m.formActive || m.formType != formMember {
		t.Fatal("m should open the member form for an activity")
	}
}

func TestManageUnlinkNeedsProject(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "a", false)

	m := newManageModel(svc)
	m, _ = m.update(m.refresh()())
	m, cmd := m.update(runeKey('u'))
	if m.formActive {
		t.Fatal("unlink on an activity should not open a form")
	}
	if msg := statusOf(t, cmd); !msg.isError {
		t.Fatal("expected an error status")
	}
}

// ============================================================
// Reports model
// ============================================================

func TestReportsWindows(t *testing.T) {
	svc, clock := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	svc.Start(context.Background(), a)
	clock.advance(2 * time.Hour)
	svc.Stop(context.Background(), a)
	clock.advance(48 * time.Hour)

	r := newReportsModel(svc)
	r.setSize(120, 40)
	r, _ = r.update(r.refresh()())
	if len(r.spans) != 0 {
		t.Fatal("24h window should be empty")
	}
	if len(r.roots) != 1 || r.roots[0].Total.TotalSeconds() != 0 {
		t.Fatalf("roots = %+v", r.roots)
	}

	r, cmd := r.update(runeKey('l'))
	r, _ = r.update(cmd())
	if r.mode != 1 || len(r.spans) != 1 {
		t.Fatalf("7d window: mode %d spans %d", r.mode, len(r.spans))
	}
	if r.roots[0].Total.TotalSeconds() != 7200 {
		t.Fatalf("7d total = %v", r.roots[0].Total.TotalSeconds())
	}
	if !strings.Contains(r.view(), "02:00:00") {
		t.Fatal("span table should show the selected time")
	}

	r, _ = r.update(runeKey('h'))
	r, _ = r.update(runeKey('h'))
	if r.mode != len(reportWindows)-1 {
		t.Fatalf("left should wrap, mode = %d", r.mode)
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	svc, _ := newTestService(t)
	app := NewApp(svc, "")

	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("help and export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "a", false)
	app := NewApp(svc, "")
	app.width = 120
	app.height = 40

	for _, v := range []viewState{viewDashboard, viewManage, viewReports} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	svc, _ := newTestService(t)
	app := NewApp(svc, "")
	model := tea.Model(app)
	for i := 0; i < len(viewNames); i++ {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if model.(App).activeView != viewDashboard {
		t.Fatal("tab should cycle back to the dashboard")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	svc, _ := newTestService(t)
	app := NewApp(svc, "")
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	svc, _ := newTestService(t)
	app := NewApp(svc, "")
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	svc, _ := newTestService(t)
	app := NewApp(svc, "")
	app.width = 120
	app.height = 40

	model, _ := app.Update(trackingChangedMsg{status: tracker.Status{Name: "a", Action: tracker.ActionStart}})
	if footer := model.(App).renderFooter(); !strings.Contains(footer, "Tracking a") {
		t.Fatal("footer should contain the tracking status")
	}
}

func TestAppExport(t *testing.T) {
	svc, clock := newTestService(t)
	a := mustCreate(t, svc, "a", false)
	svc.Start(context.Background(), a)
	clock.advance(time.Minute)
	svc.Stop(context.Background(), a)

	dir := t.TempDir()
	app := NewApp(svc, dir)

	for format, ext := range []string{".csv", ".json"} {
		msg, ok := app.doExport(format)().(exportDoneMsg)
		if !ok {
			t.Fatalf("export %s failed", ext)
		}
		if filepath.Dir(msg.path) != dir || filepath.Ext(msg.path) != ext {
			t.Fatalf("export path = %s", msg.path)
		}
		data, err := os.ReadFile(msg.path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "a") {
			t.Fatalf("export %s missing trackable", ext)
		}
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test: they render without panicking)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"runningTimer", func() string { return runningTimerStyle(store.NewColor(1, 2, 3)).Render("test") }},
		{"runningPanel", func() string { return runningPanelStyle(store.NewColor(1, 2, 3)).Render("test") }},
		{"projectName", func() string { return nameStyle(store.KindProject).Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"swatch", func() string { return swatch(store.NewColor(1, 2, 3)) }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func TestTrackableAccents(t *testing.T) {
	c := store.NewColor(255, 128, 0)
	if got := accent(c); got != lipgloss.Color("#FF8000") {
		t.Fatalf("accent = %q, want #FF8000", got)
	}
	if got := runningPanelStyle(c).GetBorderTopForeground(); got != accent(c) {
		t.Fatalf("panel border = %v, want trackable color", got)
	}
	if got := runningTimerStyle(c).GetForeground(); got != accent(c) {
		t.Fatalf("timer color = %v, want trackable color", got)
	}
	if panelStyle.GetBorderTopForeground() != colorFrame {
		t.Fatal("shared panel style must keep the frame color")
	}
	if !nameStyle(store.KindProject).GetBold() || nameStyle(store.KindActivity).GetBold() {
		t.Fatal("only projects are bold")
	}
	if stateMark(store.Inactive) != " " || stateMark(store.Active) == " " {
		t.Fatal("state mark should show only running rows")
	}
}
