package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/timer"
)

const filterAll = ""

type tasksModel struct {
	src     report.Source
	builder *report.Builder
	userID  model.ID
	loc     *time.Location
	width   int
	height  int

	tasks    []model.Task
	projects []model.Project
	visible  []model.Task
	filter   analytics.TaskFilter
	cursor   int
	loadErr  error

	viewingDetail bool
	detail        report.TaskDetail
	detailErr     error

	timer timerModel

	formActive bool
	form       *huh.Form
	formType   string // "save", "log", "filter"

	// Form field pointers (survive value copies)
	formDesc    *string
	formHours   *string
	formDate    *string
	formConfirm *bool
	formProject *string
	formStatus  *string
	formMine    *bool
}

func newTasksModel(src report.Source, b *report.Builder, userID model.ID, tm timerModel) tasksModel {
	desc, hours, date, project, status := "", "", "", filterAll, filterAll
	confirm, mine := true, false
	return tasksModel{
		src:         src,
		builder:     b,
		userID:      userID,
		loc:         b.Location(),
		timer:       tm,
		formDesc:    &desc,
		formHours:   &hours,
		formDate:    &date,
		formConfirm: &confirm,
		formProject: &project,
		formStatus:  &status,
		formMine:    &mine,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	tasks    []model.Task
	projects []model.Project
	err      error
}

type taskDetailMsg struct {
	detail report.TaskDetail
	err    error
}

func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		tasks, err := m.src.ListTasks(ctx)
		if err != nil {
			return tasksDataMsg{err: err}
		}
		// Project names are decoration; the list still works without them.
		projects, err := m.src.ListProjects(ctx)
		if err != nil {
			log.Printf("tasks: project names unavailable: %v", err)
			projects = nil
		}
		return tasksDataMsg{tasks: tasks, projects: projects}
	}
}

func (m tasksModel) loadDetail(id model.ID) tea.Cmd {
	return func() tea.Msg {
		d, err := m.builder.TaskDetail(context.Background(), id)
		return taskDetailMsg{detail: d, err: err}
	}
}

func (m tasksModel) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Task{}, false
	}
	return m.visible[m.cursor], true
}

// current is the task the detail view or the cursor points at.
func (m tasksModel) current() (model.Task, bool) {
	if m.viewingDetail && m.detailErr == nil && m.detail.Task.ID != "" {
		return m.detail.Task, true
	}
	return m.selected()
}

func (m tasksModel) projectName(id model.ID) string {
	for _, p := range m.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return "?"
}

func (m *tasksModel) applyFilter() {
	m.visible = analytics.FilterTasks(m.tasks, m.filter)
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.loadErr = msg.err
		m.tasks = msg.tasks
		m.projects = msg.projects
		m.applyFilter()
		return m, nil

	case taskDetailMsg:
		m.detail = msg.detail
		m.detailErr = msg.err
		return m, nil

	case timerTickMsg:
		return m, m.timer.tick(msg)

	case entrySavedMsg:
		m.timer.settle()
		var cmds []tea.Cmd
		cmds = append(cmds, m.refresh())
		if m.viewingDetail && m.detail.Task.ID == msg.entry.TaskID {
			cmds = append(cmds, m.loadDetail(msg.entry.TaskID))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.viewingDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if t, ok := m.selected(); ok {
			m.viewingDetail = true
			m.detail = report.TaskDetail{}
			m.detailErr = nil
			return m, m.loadDetail(t.ID)
		}
	case key.Matches(msg, keys.Filter):
		return m.showFilterForm()
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.Start), key.Matches(msg, keys.Stop),
		key.Matches(msg, keys.Discard), key.Matches(msg, keys.Log):
		return m.updateTimerKeys(msg)
	}
	return m, nil
}

func (m tasksModel) updateDetail(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.viewingDetail = false
		return m, nil
	case key.Matches(msg, keys.Refresh):
		if t, ok := m.current(); ok {
			return m, m.loadDetail(t.ID)
		}
	case key.Matches(msg, keys.Enter):
		if m.timer.stopped() {
			return m.showSaveForm()
		}
	default:
		return m.updateTimerKeys(msg)
	}
	return m, nil
}

func (m tasksModel) updateTimerKeys(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Start):
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		cmd, err := m.timer.start(t)
		if err != nil {
			return m, func() tea.Msg { return errorStatus("Cannot start: %v", err) }
		}
		return m, tea.Batch(cmd, func() tea.Msg { return timerStartedMsg{} })

	case key.Matches(msg, keys.Stop):
		if !m.timer.running() {
			return m, nil
		}
		elapsed, err := m.timer.stop()
		if err != nil {
			return m, func() tea.Msg { return errorStatus("Cannot stop: %v", err) }
		}
		var cmd tea.Cmd
		m, cmd = m.showSaveForm()
		return m, tea.Batch(cmd, func() tea.Msg { return timerStoppedMsg{elapsed: elapsed} })

	case key.Matches(msg, keys.Discard):
		if !m.timer.stopped() {
			return m, nil
		}
		if err := m.timer.discard(); err != nil {
			return m, func() tea.Msg { return errorStatus("Cannot discard: %v", err) }
		}
		return m, func() tea.Msg { return statusMsg{text: "Session discarded"} }

	case key.Matches(msg, keys.Log):
		if _, ok := m.current(); ok {
			return m.showLogForm()
		}
	}
	return m, nil
}

// ============================================================
// Forms
// ============================================================

func (m tasksModel) showSaveForm() (tasksModel, tea.Cmd) {
	pending, err := m.timer.pending()
	if err != nil {
		return m, func() tea.Msg { return errorStatus("Nothing to save: %v", err) }
	}
	*m.formDesc = ""
	*m.formConfirm = true
	m.formType = "save"

	summary := fmt.Sprintf("%s on %s (%.2fh)",
		formatDuration(m.timer.elapsed()), pending.WorkDate.Key(), pending.RoundedHours())
	if err := pending.Validate(); err != nil {
		summary += "\n" + err.Error()
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title(m.timer.taskTitle).Description(summary),
			huh.NewInput().Title("What did you work on?").Value(m.formDesc),
			huh.NewConfirm().Title("Save this session?").
				Affirmative("Save").
				Negative("Discard").
				Value(m.formConfirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showLogForm() (tasksModel, tea.Cmd) {
	*m.formHours = ""
	*m.formDate = model.DateIn(time.Now(), m.loc).Key()
	*m.formDesc = ""
	m.formType = "log"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hours").Placeholder("1.5").Value(m.formHours).
				Validate(validateHours),
			huh.NewInput().Title("Date (yyyy-mm-dd)").Value(m.formDate).
				Validate(func(s string) error {
					_, err := model.ParseDate(strings.TrimSpace(s))
					return err
				}),
			huh.NewInput().Title("Description").Value(m.formDesc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func validateHours(s string) error {
	h, err := model.ParseHours(s)
	if err != nil {
		return err
	}
	return model.NewTimeEntry{HoursSpent: h, WorkDate: model.DateOf(time.Now())}.Validate()
}

func (m tasksModel) showFilterForm() (tasksModel, tea.Cmd) {
	*m.formProject = string(m.filter.ProjectID)
	*m.formStatus = string(m.filter.Status)
	*m.formMine = m.filter.Assignee != ""
	m.formType = "filter"

	projectOptions := []huh.Option[string]{huh.NewOption("All projects", filterAll)}
	for _, p := range m.projects {
		projectOptions = append(projectOptions, huh.NewOption(p.Name, p.ID.String()))
	}
	statusOptions := []huh.Option[string]{huh.NewOption("Any status", filterAll)}
	for _, s := range model.TaskStatuses {
		statusOptions = append(statusOptions, huh.NewOption(s.Label(), string(s)))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Project").Options(projectOptions...).Value(m.formProject),
			huh.NewSelect[string]().Title("Status").Options(statusOptions...).Value(m.formStatus),
			huh.NewConfirm().Title("Only my tasks?").Value(m.formMine),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			if m.formType == "save" {
				return m, func() tea.Msg {
					return statusMsg{text: "Session kept: enter to save, d to discard"}
				}
			}
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		return m.submitForm()
	}

	return m, cmd
}

func (m tasksModel) submitForm() (tasksModel, tea.Cmd) {
	switch m.formType {
	case "save":
		if !*m.formConfirm {
			if err := m.timer.discard(); err != nil {
				return m, func() tea.Msg { return errorStatus("Cannot discard: %v", err) }
			}
			return m, func() tea.Msg { return statusMsg{text: "Session discarded"} }
		}
		return m, m.timer.saveCmd(strings.TrimSpace(*m.formDesc))

	case "log":
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		hours, _ := model.ParseHours(*m.formHours)
		date, _ := model.ParseDate(strings.TrimSpace(*m.formDate))
		entry := model.NewTimeEntry{HoursSpent: hours, WorkDate: date, Description: strings.TrimSpace(*m.formDesc)}
		b := m.builder
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			e, err := b.LogTime(ctx, t.ID, entry)
			if err != nil {
				return errorStatus("Log failed: %v", err)
			}
			return entrySavedMsg{entry: e}
		}

	case "filter":
		m.filter = analytics.TaskFilter{
			ProjectID: model.ID(*m.formProject),
			Status:    model.TaskStatus(*m.formStatus),
		}
		if *m.formMine {
			m.filter.Assignee = m.userID
		}
		m.cursor = 0
		m.applyFilter()
	}
	return m, nil
}

// ============================================================
// Views
// ============================================================

func (m tasksModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		title := titleStyle.Render("Log Time")
		switch m.formType {
		case "save":
			title = titleStyle.Render("Save Session")
		case "filter":
			title = titleStyle.Render("Filter Tasks")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	if m.viewingDetail {
		return m.renderDetail(w)
	}
	return m.renderList(w)
}

func (m tasksModel) filterLabel() string {
	var parts []string
	if m.filter.ProjectID != "" {
		parts = append(parts, "project: "+m.projectName(m.filter.ProjectID))
	}
	if m.filter.Status != "" {
		parts = append(parts, "status: "+m.filter.Status.Label())
	}
	if m.filter.Assignee != "" {
		parts = append(parts, "mine")
	}
	if len(parts) == 0 {
		return ""
	}
	return mutedStyle.Render("  [" + strings.Join(parts, ", ") + "]")
}

func (m tasksModel) renderList(w int) string {
	title := titleStyle.Render("Tasks") + m.filterLabel()

	if m.loadErr != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "",
			errorStyle.Render("Could not load tasks: "+m.loadErr.Error()),
			mutedStyle.Render("Press r to retry."),
		))
	}

	if len(m.visible) == 0 {
		hint := "No tasks yet."
		if len(m.tasks) > 0 {
			hint = "No tasks match the filter. Press f to change it."
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render(hint)))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-28s %-16s %-8s %-12s %6s", "Title", "Project", "Priority", "Status", "Est.")))

	for i, t := range m.visible {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if m.timer.active() && m.timer.taskID == t.ID {
			marker = successStyle.Render("●")
		}
		priority := fg(colorFor(t.Priority.Color())).Render(fmt.Sprintf("%-8s", t.Priority))
		status := fg(colorFor(t.Status.Color())).Render(fmt.Sprintf("%-12s", t.Status.Label()))
		row := style.Render(fmt.Sprintf("%s%s %-28s %-16s", cursor, marker, truncate(t.Title, 28), truncate(m.projectName(t.ProjectID), 16))) +
			" " + priority + " " + status + " " + fmt.Sprintf("%6s", formatHours(t.EstimatedHours.Float()))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: details  s: start timer  n: log time  f: filter  r: refresh"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderDetail(w int) string {
	if m.detailErr != nil {
		msg := "Could not load task: " + m.detailErr.Error()
		if model.IsNotFound(m.detailErr) {
			msg = "This task no longer exists."
		}
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Bold(true).Render(msg), "", mutedStyle.Render("esc: back"),
		))
	}
	if m.detail.Task.ID == "" {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading task..."))
	}

	t := m.detail.Task
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(t.Title),
		mutedStyle.Render(m.projectName(t.ProjectID))+"  "+
			dot(t.Status.Color())+" "+t.Status.Label()+"  "+
			fg(colorFor(t.Priority.Color())).Render(string(t.Priority)),
	)
	if t.Description != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, subtitleStyle.Render(t.Description))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(w).Render(header),
		m.renderTimerPanel(w, t),
		m.renderProgressPanel(w),
		m.renderEntriesPanel(w),
	)
}

func (m tasksModel) renderTimerPanel(w int, t model.Task) string {
	if !m.timer.active() || m.timer.taskID != t.ID {
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerStyle(timer.Idle).Width(w-6).Render("00:00:00"),
			mutedStyle.Render("■  IDLE"),
			mutedStyle.Render("s: start  n: log time manually"),
		)
		if m.timer.active() {
			content = lipgloss.JoinVertical(lipgloss.Center, content,
				warningStyle.Render("Timer is on "+m.timer.taskTitle))
		}
		return panelStyle.Width(w).Render(content)
	}

	timeStr := formatDuration(m.timer.elapsed())
	if m.timer.running() {
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
			timerStyle(timer.Running).Width(w-6).Render(timeStr),
			successStyle.Render("●  RUNNING"),
			mutedStyle.Render("x: stop"),
		))
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
		timerStyle(timer.Stopped).Width(w-6).Render(timeStr),
		warningStyle.Render("■  STOPPED"),
		mutedStyle.Render("enter: save  d: discard"),
	))
}

func (m tasksModel) renderProgressPanel(w int) string {
	p := m.detail.Progress
	barWidth := max(10, min(w-30, 40))

	rows := []string{titleStyle.Render("Progress")}
	rows = append(rows, fmt.Sprintf("  %s %5.1f%%  %s logged of %s",
		bar(p.ProgressPercentage, barWidth, p.Band().Color()),
		p.ProgressPercentage,
		formatHours(p.TotalLoggedHours),
		formatHours(p.EstimatedHours),
	))

	remaining := mutedStyle.Render(p.RemainingLabel())
	if p.IsOvertime {
		remaining = errorStyle.Render(p.RemainingLabel())
	}
	rows = append(rows, "  "+remaining)

	if p.EstimatedHours > 0 && p.TotalLoggedHours > 0 {
		rows = append(rows, fmt.Sprintf("  %s %5.1f%%  efficiency",
			bar(p.EfficiencyRating(), barWidth, p.EfficiencyColor()),
			p.Efficiency,
		))
	}
	rows = append(rows, sectionErrors(m.detail.Sections)...)

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderEntriesPanel(w int) string {
	title := titleStyle.Render("Time Entries")
	if len(m.detail.Entries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No time logged yet")))
	}

	limit := max(3, m.height-24)
	rows := []string{title}
	for i, e := range m.detail.Entries {
		if i == limit {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(m.detail.Entries)-limit)))
			break
		}
		user := e.UserName
		if user == "" {
			user = e.UserID.String()
		}
		rows = append(rows, fmt.Sprintf("  %s  %6s  %-12s %s",
			e.WorkDate.Key(),
			formatHours(e.HoursSpent.Float()),
			truncate(user, 12),
			mutedStyle.Render(truncate(e.Description, max(10, w-40))),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
