package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/config"
	"github.com/sadopc/tasklog/internal/export"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/timer"
)

// Options wires the App to a backend.
type Options struct {
	Source     report.Source
	Builder    *report.Builder
	UserID     model.ID
	Scheduler  timer.Scheduler
	Interval   time.Duration
	Config     *config.Config
	ConfigPath string
	// ExportDir defaults to the home directory.
	ExportDir string
}

var exportFormats = []string{"CSV", "JSON", "Daily rollup (CSV)"}

// App is the root Bubble Tea model.
type App struct {
	builder   *report.Builder
	userID    model.ID
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	tasks     tasksModel
	progress  progressModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	dir := opts.ExportDir
	if dir == "" {
		dir, _ = os.UserHomeDir()
	}

	tm := newTimerModel(opts.Source, opts.Scheduler, opts.Interval, opts.Builder.Location())
	return App{
		builder:    opts.Builder,
		userID:     opts.UserID,
		exportDir:  dir,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(opts.Builder, opts.UserID),
		tasks:      newTasksModel(opts.Source, opts.Builder, opts.UserID, tm),
		progress:   newProgressModel(opts.Builder, opts.UserID),
		settings:   newSettingsModel(opts.Config, opts.ConfigPath),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.tasks.refresh(),
	)
}

// Close cancels a running timer's tick. Call it after the program exits.
func (a App) Close() {
	a.tasks.timer.close()
}

// TimerActive reports whether a session is running or waiting to be saved.
func (a App) TimerActive() bool {
	return a.tasks.timer.active()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.progress.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewProgress
			return a, a.progress.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	// Timer and save results belong to the tasks view wherever the user is.
	case timerTickMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case entrySavedMsg:
		a.status = fmt.Sprintf("Logged %s on %s", formatHours(msg.entry.HoursSpent.Float()), msg.entry.WorkDate.Key())
		a.statusErr = false
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, tea.Batch(cmd, a.refreshCurrentView())

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case progressDataMsg:
		var cmd tea.Cmd
		a.progress, cmd = a.progress.update(msg)
		return a, cmd

	case tasksDataMsg, taskDetailMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.status = "Settings saved; restart to apply"
		a.statusErr = false
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case timerStartedMsg:
		a.status = "Timer started"
		a.statusErr = false
		return a, nil

	case timerStoppedMsg:
		a.status = "Timer stopped at " + formatDuration(msg.elapsed)
		a.statusErr = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewProgress:
		a.progress, cmd = a.progress.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewProgress:
		return a.progress.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewProgress:
		content = a.progress.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tasklog")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	tm := a.tasks.timer
	switch {
	case tm.running():
		timerInfo = successStyle.Render(" ● " + formatDuration(tm.elapsed()))
	case tm.stopped():
		timerInfo = warningStyle.Render(" ■ " + formatDuration(tm.elapsed()) + " unsaved")
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export My Time")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		ex, err := a.builder.Export(context.Background(), a.userID, now)
		if err != nil {
			return errorStatus("Export error: %v", err)
		}
		dateStr := model.DateIn(now, a.builder.Location()).Key()

		var path string
		switch format {
		case 0:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tasklog-export-%s.csv", dateStr))
			err = export.ToCSV(ex.Entries, ex.Tasks, path)
		case 1:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tasklog-export-%s.json", dateStr))
			err = export.ToJSON(ex.Entries, ex.Tasks, ex.Daily, path)
		default:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tasklog-daily-%s.csv", dateStr))
			err = export.RollupToCSV(ex.Daily, path)
		}
		if err != nil {
			return errorStatus("Export error: %v", err)
		}
		return exportDoneMsg{path: path}
	}
}
