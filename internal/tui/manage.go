package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/actra/internal/store"
	"github.com/sadopc/actra/internal/timeval"
	"github.com/sadopc/actra/internal/tracker"
)

var trackableColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

const (
	formNew     = "new"
	formRename  = "rename"
	formMember  = "member"
	formUnlink  = "unlink"
	formJoin    = "join"
	formConvert = "convert"
	formDelete  = "delete"
	formTime    = "time"
)

var formTitles = map[string]string{
	formNew:     "New Trackable",
	formRename:  "Rename",
	formMember:  "Add To Project",
	formUnlink:  "Remove Members",
	formJoin:    "Join Trackables",
	formConvert: "Convert",
	formDelete:  "Delete",
	formTime:    "Set Current Interval",
}

type manageModel struct {
	svc    *tracker.Service
	width  int
	height int

	trackables []*store.Trackable
	cursor     int

	formActive bool
	form       *huh.Form
	formType   string
	targetID   string

	// Form field pointers (survive value copies)
	formName     *string
	formColor    *string
	formKind     *string
	formTarget   *string
	formSelected *[]string
	formConfirm  *bool
	formForget   *bool
}

func newManageModel(svc *tracker.Service) manageModel {
	name, color, kind, target := "", trackableColors[0], store.KindActivity.String(), ""
	var selected []string
	var confirm, forget bool
	return manageModel{
		svc:          svc,
		formName:     &name,
		formColor:    &color,
		formKind:     &kind,
		formTarget:   &target,
		formSelected: &selected,
		formConfirm:  &confirm,
		formForget:   &forget,
	}
}

func (m *manageModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type manageDataMsg struct {
	trackables []*store.Trackable
}

func (m manageModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return manageDataMsg{trackables: m.svc.List()}
	}
}

func (m manageModel) selected() *store.Trackable {
	if m.cursor < 0 || m.cursor >= len(m.trackables) {
		return nil
	}
	return m.trackables[m.cursor]
}

func (m manageModel) update(msg tea.Msg) (manageModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case manageDataMsg:
		m.trackables = msg.trackables
		if m.cursor >= len(m.trackables) {
			m.cursor = max(0, len(m.trackables)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m manageModel) updateList(msg tea.KeyMsg) (manageModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.trackables)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, keys.New):
		return m.showNewForm()
	}

	t := m.selected()
	if t == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Rename):
		return m.showRenameForm(t)
	case key.Matches(msg, keys.Member):
		return m.showMemberForm(t)
	case key.Matches(msg, keys.Unlink):
		return m.showUnlinkForm(t)
	case key.Matches(msg, keys.Join):
		return m.showJoinForm(t)
	case key.Matches(msg, keys.Convert):
		return m.showConvertForm(t)
	case key.Matches(msg, keys.Delete):
		return m.showDeleteForm(t)
	case key.Matches(msg, keys.Time):
		return m.showTimeForm(t)
	}
	return m, nil
}

func colorOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(trackableColors))
	for i, c := range trackableColors {
		opts[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}
	return opts
}

func requireName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func (m manageModel) open(formType, targetID string, groups ...*huh.Group) (manageModel, tea.Cmd) {
	m.formType = formType
	m.targetID = targetID
	m.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m manageModel) showNewForm() (manageModel, tea.Cmd) {
	*m.formName = ""
	*m.formColor = trackableColors[0]
	*m.formKind = store.KindActivity.String()

	return m.open(formNew, "", huh.NewGroup(
		huh.NewInput().Title("Name").Value(m.formName).Validate(requireName),
		huh.NewSelect[string]().Title("Kind").Options(
			huh.NewOption("Activity", store.KindActivity.String()),
			huh.NewOption("Project", store.KindProject.String()),
		).Value(m.formKind),
		huh.NewSelect[string]().Title("Color").Options(colorOptions()...).Value(m.formColor),
	))
}

func (m manageModel) showRenameForm(t *store.Trackable) (manageModel, tea.Cmd) {
	*m.formName = t.Name()
	*m.formColor = t.Color().Hex()

	return m.open(formRename, t.ID(), huh.NewGroup(
		huh.NewInput().Title("Name").Value(m.formName).Validate(requireName),
		huh.NewInput().Title("Color (#RRGGBB)").Value(m.formColor).Validate(func(s string) error {
			_, err := store.ParseHex(s)
			return err
		}),
	))
}

func (m manageModel) showMemberForm(t *store.Trackable) (manageModel, tea.Cmd) {
	var opts []huh.Option[string]
	for _, p := range m.trackables {
		if p.IsProject() && p.ID() != t.ID() && !p.HasMember(t.ID()) {
			opts = append(opts, huh.NewOption(p.Name(), p.ID()))
		}
	}
	if len(opts) == 0 {
		return m, statusCmd("No project can take "+t.Name(), true)
	}
	*m.formTarget = opts[0].Value

	return m.open(formMember, t.ID(), huh.NewGroup(
		huh.NewSelect[string]().Title("Add "+t.Name()+" to").Options(opts...).Value(m.formTarget),
	))
}

func (m manageModel) showUnlinkForm(t *store.Trackable) (manageModel, tea.Cmd) {
	if !t.IsProject() {
		return m, statusCmd(t.Name()+" is not a project", true)
	}
	members, err := m.svc.ProjectMembers(t.ID())
	if err != nil {
		return m, errorCmd(err)
	}
	if len(members) == 0 {
		return m, statusCmd(t.Name()+" has no members", true)
	}
	opts := make([]huh.Option[string], len(members))
	for i, mem := range members {
		opts[i] = huh.NewOption(mem.Name(), mem.ID())
	}
	*m.formSelected = nil

	return m.open(formUnlink, t.ID(), huh.NewGroup(
		huh.NewMultiSelect[string]().Title("Remove from "+t.Name()).Options(opts...).Value(m.formSelected),
	))
}

func (m manageModel) showJoinForm(t *store.Trackable) (manageModel, tea.Cmd) {
	var opts []huh.Option[string]
	for _, o := range m.trackables {
		if o.ID() != t.ID() {
			opts = append(opts, huh.NewOption(o.Name(), o.ID()))
		}
	}
	if len(opts) == 0 {
		return m, statusCmd("Nothing to join with "+t.Name(), true)
	}
	*m.formSelected = nil
	*m.formName = t.Name()
	*m.formForget = false

	return m.open(formJoin, t.ID(), huh.NewGroup(
		huh.NewMultiSelect[string]().Title("Join "+t.Name()+" with").Options(opts...).Value(m.formSelected),
		huh.NewInput().Title("Joined name").Value(m.formName).Validate(requireName),
		huh.NewConfirm().Title("Drop project memberships?").Value(m.formForget),
	))
}

func (m manageModel) showConvertForm(t *store.Trackable) (manageModel, tea.Cmd) {
	*m.formConfirm = false
	title := fmt.Sprintf("Convert %s to a project?", t.Name())
	if t.IsProject() {
		title = fmt.Sprintf("Convert %s to an activity? Its members are released.", t.Name())
	}
	return m.open(formConvert, t.ID(), huh.NewGroup(
		huh.NewConfirm().Title(title).Value(m.formConfirm),
	))
}

func (m manageModel) showDeleteForm(t *store.Trackable) (manageModel, tea.Cmd) {
	*m.formConfirm = false
	*m.formForget = false
	return m.open(formDelete, t.ID(), huh.NewGroup(
		huh.NewConfirm().Title(fmt.Sprintf("Delete %s?", t.Name())).Value(m.formConfirm),
		huh.NewConfirm().Title("Also delete its intervals?").Value(m.formForget),
	))
}

func (m manageModel) showTimeForm(t *store.Trackable) (manageModel, tea.Cmd) {
	if t.CurrentIntervalID() == "" {
		return m, statusCmd(t.Name()+" has no current interval", true)
	}
	*m.formName = ""
	return m.open(formTime, t.ID(), huh.NewGroup(
		huh.NewInput().Title("Length (e.g. 1h30m)").Value(m.formName).Validate(func(s string) error {
			_, err := time.ParseDuration(strings.TrimSpace(s))
			return err
		}),
	))
}

func (m manageModel) updateForm(msg tea.Msg) (manageModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, tea.Batch(m.apply(), m.refresh())
	}
	return m, cmd
}

// apply runs the completed form against the service and reports the outcome.
func (m manageModel) apply() tea.Cmd {
	ctx := context.Background()
	name := strings.TrimSpace(*m.formName)

	switch m.formType {
	case formNew:
		color, _ := store.ParseHex(*m.formColor)
		var err error
		if *m.formKind == store.KindProject.String() {
			_, err = m.svc.CreateProject(ctx, name, color)
		} else {
			_, err = m.svc.CreateActivity(ctx, name, color)
		}
		if err != nil {
			return errorCmd(err)
		}
		return statusCmd("Created "+name, false)

	case formRename:
		if err := m.svc.Rename(ctx, m.targetID, name); err != nil {
			return errorCmd(err)
		}
		if color, err := store.ParseHex(*m.formColor); err == nil {
			if err := m.svc.Recolor(ctx, m.targetID, color); err != nil {
				return errorCmd(err)
			}
		}
		return statusCmd("Renamed to "+name, false)

	case formMember:
		if !m.svc.AddMember(ctx, *m.formTarget, m.targetID) {
			return statusCmd("Could not add member: it would nest a project inside itself", true)
		}
		return statusCmd("Member added", false)

	case formUnlink:
		m.svc.RemoveMembers(ctx, m.targetID, *m.formSelected...)
		return statusCmd(fmt.Sprintf("Removed %d members", len(*m.formSelected)), false)

	case formJoin:
		ids := append([]string{m.targetID}, *m.formSelected...)
		joined, err := m.svc.Join(ctx, name, ids, nil, *m.formForget)
		if err != nil {
			return errorCmd(err)
		}
		return statusCmd(fmt.Sprintf("Joined %d into %s", len(ids), joined.Name()), false)

	case formConvert:
		if !*m.formConfirm {
			return nil
		}
		var (
			t   *store.Trackable
			err error
		)
		if current := m.svc.Get(m.targetID); current != nil && current.IsProject() {
			t, err = m.svc.ConvertProjectToActivity(ctx, m.targetID)
		} else {
			t, err = m.svc.ConvertActivityToProject(ctx, m.targetID)
		}
		if err != nil {
			return errorCmd(err)
		}
		return statusCmd(fmt.Sprintf("Converted %s to %s", t.Name(), t.Kind()), false)

	case formDelete:
		if !*m.formConfirm {
			return nil
		}
		m.svc.Delete(ctx, m.targetID, *m.formForget)
		return statusCmd("Deleted", false)

	case formTime:
		d, err := time.ParseDuration(name)
		if err != nil {
			return errorCmd(err)
		}
		parts, err := m.svc.SetCurrentIntervalTime(ctx, m.targetID, timeval.FromDuration(d, timeval.HMS).Parts())
		if err != nil {
			return errorCmd(err)
		}
		return statusCmd("Current interval set to "+timeval.FromParts(*parts, timeval.HMS).String(), false)
	}
	return nil
}

func (m manageModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render(formTitles[m.formType])
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}
	return m.renderList()
}

func (m manageModel) renderList() string {
	w := m.width - 4
	title := titleStyle.Render("Manage")

	if len(m.trackables) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No trackables yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-26s %-10s %-8s %-8s", "", "Name", "Kind", "Members", "Color")))

	for i, t := range m.trackables {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		members := "-"
		if t.IsProject() {
			members = fmt.Sprint(len(t.MemberIDs()))
		}
		row := style.Render(fmt.Sprintf("%s%s %-26s %-10s %-8s %-8s",
			cursor, swatch(t.Color()), truncate(t.Name(), 26), t.Kind(), members, t.Color().Hex()))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  r: rename  m: add to project  u: remove members  g: join  c: convert  t: interval time  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
