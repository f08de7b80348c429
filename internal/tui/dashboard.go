package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
)

type dashboardModel struct {
	builder *report.Builder
	userID  model.ID
	width   int
	height  int

	data   report.Dashboard
	loaded bool
}

func newDashboardModel(b *report.Builder, userID model.ID) dashboardModel {
	return dashboardModel{builder: b, userID: userID}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	data report.Dashboard
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		return dashboardDataMsg{data: d.builder.Dashboard(context.Background(), d.userID)}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.data = msg.data
		d.loaded = true
		return d, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Refresh) {
			return d, d.loadData()
		}
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4
	if !d.loaded {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading dashboard..."))
	}

	summary := d.renderSummaryPanel(w)
	half := (w - 1) / 2
	recent := lipgloss.JoinHorizontal(lipgloss.Top,
		d.renderRecentTasks(half),
		" ",
		d.renderRecentProjects(w-half-1),
	)
	return lipgloss.JoinVertical(lipgloss.Left, summary, recent)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	s := d.data.Summary
	barWidth := max(10, min(w-40, 30))

	rows := []string{titleStyle.Render("Overview")}
	rows = append(rows, fmt.Sprintf("  %-10s %3d   %s %d in progress  %s %d completed",
		"Projects", s.Projects.Total,
		dot(model.ProjectInProgress.Color()), s.Projects.InProgress,
		dot(model.ProjectCompleted.Color()), s.Projects.Completed,
	))
	rows = append(rows, fmt.Sprintf("  %-10s %3d   %s %d open  %s %d in progress  %s %d review  %s %d done",
		"Tasks", s.Tasks.Total,
		dot(model.TaskNotStarted.Color()), s.Tasks.Open,
		dot(model.TaskInProgress.Color()), s.Tasks.InProgress,
		dot(model.TaskReview.Color()), s.Tasks.Review,
		dot(model.TaskCompleted.Color()), s.Tasks.Completed,
	))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %-18s %s %5.1f%%", "Task completion", bar(s.TaskCompletion(), barWidth, model.ColorSuccess), s.TaskCompletion()))
	rows = append(rows, fmt.Sprintf("  %-18s %s %5.1f%%", "Project completion", bar(s.ProjectCompletion(), barWidth, model.ColorSuccess), s.ProjectCompletion()))
	rows = append(rows, fmt.Sprintf("  %-18s %s %d", "Pending reviews", bar(s.ReviewShare(), barWidth, model.ColorSecondary), s.PendingReviews))
	rows = append(rows, sectionErrors(d.data.Sections)...)

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentTasks(w int) string {
	title := titleStyle.Render("My Recent Tasks")
	if len(d.data.RecentTasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No tasks assigned to you")))
	}
	rows := []string{title}
	for _, t := range d.data.RecentTasks {
		rows = append(rows, fmt.Sprintf("  %s %-24s %s",
			dot(t.Status.Color()),
			truncate(t.Title, 24),
			mutedStyle.Render(t.Status.Label()),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentProjects(w int) string {
	title := titleStyle.Render("Recent Projects")
	if len(d.data.RecentProjects) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No projects yet")))
	}
	rows := []string{title}
	for _, p := range d.data.RecentProjects {
		rows = append(rows, fmt.Sprintf("  %s %-24s %s",
			dot(p.Status.Color()),
			truncate(p.Name, 24),
			mutedStyle.Render(p.Status.Label()),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
