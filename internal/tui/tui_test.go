package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/config"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/store"
	"github.com/sadopc/tasklog/internal/timer"
)

const testUser model.ID = "u1"

type fakeScheduler struct {
	scheduled int
	cancelled int
	fn        func()
}

func (s *fakeScheduler) Every(_ time.Duration, fn func()) func() {
	s.scheduled++
	s.fn = fn
	return func() { s.cancelled++ }
}

type testEnv struct {
	store   *store.Store
	builder *report.Builder
	sched   *fakeScheduler
	task    model.Task
	other   model.Task
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Website", "", model.ProjectInProgress)
	if err != nil {
		t.Fatal(err)
	}
	task, err := s.CreateTask(ctx, store.NewTask{ProjectID: p.ID, Title: "Landing page", EstimatedHours: 4, AssignedTo: testUser})
	if err != nil {
		t.Fatal(err)
	}
	other, err := s.CreateTask(ctx, store.NewTask{ProjectID: p.ID, Title: "Footer", Status: model.TaskCompleted, AssignedTo: "u2"})
	if err != nil {
		t.Fatal(err)
	}

	me := s.AsUser(testUser)
	b, err := report.NewBuilder(me, report.Options{Location: time.UTC})
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{store: me, builder: b, sched: &fakeScheduler{}, task: task, other: other}
}

func (e *testEnv) timerModel() timerModel {
	return newTimerModel(e.store, e.sched, time.Second, time.UTC)
}

func (e *testEnv) app(t *testing.T) App {
	t.Helper()
	return NewApp(Options{
		Source:    e.store,
		Builder:   e.builder,
		UserID:    testUser,
		Scheduler: e.sched,
		Interval:  time.Second,
		Config:    config.Default(),
		ExportDir: t.TempDir(),
	})
}

// loadedTasks returns a tasks model with the store's data applied.
func (e *testEnv) loadedTasks(t *testing.T) tasksModel {
	t.Helper()
	m := newTasksModel(e.store, e.builder, testUser, e.timerModel())
	m.setSize(120, 40)
	msg := m.refresh()()
	m, _ = m.update(msg)
	return m
}

// ============================================================
// Timer model
// ============================================================

func TestTimerModelStartTickStop(t *testing.T) {
	env := newTestEnv(t)
	tm := env.timerModel()
	if tm.active() {
		t.Fatal("timer should start idle")
	}

	wait, err := tm.start(env.task)
	if err != nil {
		t.Fatal(err)
	}
	if !tm.running() || tm.taskID != env.task.ID || tm.taskTitle != "Landing page" {
		t.Fatalf("unexpected timer state: %s %s", tm.state(), tm.taskID)
	}
	if env.sched.scheduled != 1 {
		t.Fatalf("expected one scheduled tick, got %d", env.sched.scheduled)
	}

	// The scheduler callback only signals; the command turns it into a message.
	env.sched.fn()
	msg := wait()
	tick, ok := msg.(timerTickMsg)
	if !ok || tick.taskID != env.task.ID {
		t.Fatalf("expected timerTickMsg for the task, got %#v", msg)
	}
	if next := tm.tick(tick); next == nil {
		t.Fatal("running timer should keep waiting for ticks")
	}

	pending := tm.waitForTick()
	if _, err := tm.stop(); err != nil {
		t.Fatal(err)
	}
	if env.sched.cancelled != 1 {
		t.Fatalf("expected tick cancelled once, got %d", env.sched.cancelled)
	}
	if msg := pending(); msg != nil {
		t.Fatalf("waiting command should end after stop, got %#v", msg)
	}
	if !tm.stopped() {
		t.Fatal("timer should be stopped")
	}
	if tm.tick(tick) != nil {
		t.Fatal("a late tick must not restart the wait loop")
	}

	tm.close()
	if env.sched.cancelled != 1 {
		t.Fatalf("close after stop must not cancel again, got %d", env.sched.cancelled)
	}
}

func TestTimerModelRejectsSecondStart(t *testing.T) {
	env := newTestEnv(t)
	tm := env.timerModel()
	if _, err := tm.start(env.task); err != nil {
		t.Fatal(err)
	}
	if _, err := tm.start(env.other); err == nil {
		t.Fatal("expected error starting a second timer")
	}
	tm.close()
	if env.sched.cancelled != 1 {
		t.Fatalf("close should cancel the running tick, got %d", env.sched.cancelled)
	}
}

func TestTimerModelStopWhenIdle(t *testing.T) {
	env := newTestEnv(t)
	tm := env.timerModel()
	if _, err := tm.stop(); err != errNoTimer {
		t.Fatalf("expected errNoTimer, got %v", err)
	}
	if err := tm.discard(); err != errNoTimer {
		t.Fatalf("expected errNoTimer, got %v", err)
	}
}

func TestTimerModelSave(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	tm := env.timerModel()
	tm.clock = func() time.Time { return now }

	tm.start(env.task)
	now = now.Add(90 * time.Minute)
	tm.stop()

	msg := tm.saveCmd("hero section")()
	saved, ok := msg.(entrySavedMsg)
	if !ok {
		t.Fatalf("expected entrySavedMsg, got %#v", msg)
	}
	if saved.entry.HoursSpent != 1.5 || saved.entry.WorkDate.Key() != "2024-06-10" {
		t.Fatalf("unexpected entry %+v", saved.entry)
	}

	tm.settle()
	if tm.active() || tm.work != nil {
		t.Fatal("timer should be idle after save")
	}

	entries, _ := env.store.ListTaskTimeEntries(context.Background(), env.task.ID)
	if len(entries) != 1 || entries[0].UserID != testUser {
		t.Fatalf("expected one stored entry for the user, got %+v", entries)
	}
}

func TestTimerModelSaveTooShortKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	tm := env.timerModel()
	tm.clock = func() time.Time { return now }

	tm.start(env.task)
	now = now.Add(10 * time.Second)
	tm.stop()

	msg := tm.saveCmd("")()
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if !tm.stopped() {
		t.Fatal("failed save should keep the session stopped")
	}
	if err := tm.discard(); err != nil {
		t.Fatal(err)
	}
	if tm.active() {
		t.Fatal("discard should return to idle")
	}
}

// ============================================================
// Tasks view
// ============================================================

func TestTasksLoadAndFilter(t *testing.T) {
	env := newTestEnv(t)
	m := env.loadedTasks(t)

	if len(m.tasks) != 2 || len(m.visible) != 2 {
		t.Fatalf("expected 2 tasks, got %d/%d", len(m.tasks), len(m.visible))
	}
	if !strings.Contains(m.view(), "Landing page") {
		t.Fatal("list should show task titles")
	}

	*m.formProject = ""
	*m.formStatus = string(model.TaskCompleted)
	*m.formMine = false
	m.formType = "filter"
	m, _ = m.submitForm()
	if len(m.visible) != 1 || m.visible[0].ID != env.other.ID {
		t.Fatalf("expected only the completed task, got %+v", m.visible)
	}

	*m.formStatus = ""
	*m.formMine = true
	m, _ = m.submitForm()
	if len(m.visible) != 1 || m.visible[0].ID != env.task.ID {
		t.Fatalf("expected only my task, got %+v", m.visible)
	}
	if !strings.Contains(m.filterLabel(), "mine") {
		t.Fatal("filter label should mention the assignee filter")
	}
}

func TestTasksLoadError(t *testing.T) {
	env := newTestEnv(t)
	m := newTasksModel(env.store, env.builder, testUser, env.timerModel())
	m.setSize(120, 40)
	m, _ = m.update(tasksDataMsg{err: context.DeadlineExceeded})
	if !strings.Contains(m.view(), "Could not load tasks") {
		t.Fatal("expected load error in view")
	}
}

type projectsDown struct {
	*store.Store
}

func (projectsDown) ListProjects(context.Context) ([]model.Project, error) {
	return nil, context.DeadlineExceeded
}

func TestTasksLoadWithoutProjects(t *testing.T) {
	env := newTestEnv(t)
	m := newTasksModel(projectsDown{env.store}, env.builder, testUser, env.timerModel())
	m.setSize(120, 40)
	msg := m.refresh()()
	if dm, ok := msg.(tasksDataMsg); !ok || dm.err != nil || dm.projects != nil {
		t.Fatalf("expected tasks without project names, got %+v", msg)
	}
	m, _ = m.update(msg)
	if len(m.tasks) != 2 || !strings.Contains(m.view(), "Landing page") {
		t.Fatal("task list should load when projects are unavailable")
	}
}

func TestTaskDetail(t *testing.T) {
	env := newTestEnv(t)
	env.store.CreateTimeEntry(context.Background(), env.task.ID, model.NewTimeEntry{
		HoursSpent: 5, WorkDate: model.NewDate(2024, 6, 10), Description: "layout",
	})

	m := env.loadedTasks(t)
	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.viewingDetail || cmd == nil {
		t.Fatal("enter should open the detail view and load it")
	}
	m, _ = m.update(cmd())

	if !m.detail.Progress.IsOvertime || m.detail.Progress.OvertimeHours != 1 {
		t.Fatalf("unexpected progress %+v", m.detail.Progress)
	}
	view := m.view()
	if !strings.Contains(view, "1.0h over") || !strings.Contains(view, "layout") {
		t.Fatalf("detail view missing progress or entries:\n%s", view)
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewingDetail {
		t.Fatal("esc should return to the list")
	}
}

func TestTaskDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	m := env.loadedTasks(t)
	m.viewingDetail = true
	m, _ = m.update(m.loadDetail("999")())

	if !model.IsNotFound(m.detailErr) {
		t.Fatalf("expected not found, got %v", m.detailErr)
	}
	if !strings.Contains(m.view(), "no longer exists") {
		t.Fatal("missing task should render a blocking message")
	}
}

func TestTasksStartStopOpensSaveForm(t *testing.T) {
	env := newTestEnv(t)
	m := env.loadedTasks(t)

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if !m.timer.running() {
		t.Fatal("s should start the timer on the selected task")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if !m.timer.stopped() {
		t.Fatal("x should stop the timer")
	}
	if !m.formActive || m.formType != "save" {
		t.Fatal("stopping should open the save form")
	}

	// esc closes the form but keeps the session
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive || !m.timer.stopped() {
		t.Fatal("esc should keep the stopped session")
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if m.timer.active() {
		t.Fatal("d should discard the stopped session")
	}
}

func TestTasksSaveFormDiscard(t *testing.T) {
	env := newTestEnv(t)
	m := env.loadedTasks(t)
	m.timer.start(env.task)
	m.timer.stop()

	m.formType = "save"
	*m.formConfirm = false
	m, _ = m.submitForm()
	if m.timer.active() {
		t.Fatal("declining the save should discard the session")
	}
}

func TestTasksManualLog(t *testing.T) {
	env := newTestEnv(t)
	m := env.loadedTasks(t)

	m.formType = "log"
	*m.formHours = "2.5"
	*m.formDate = "2024-06-11"
	*m.formDesc = "  copy edits "
	m, cmd := m.submitForm()
	if cmd == nil {
		t.Fatal("expected a log command")
	}
	saved, ok := cmd().(entrySavedMsg)
	if !ok {
		t.Fatal("expected entrySavedMsg")
	}
	if saved.entry.HoursSpent != 2.5 || saved.entry.Description != "copy edits" || saved.entry.TaskID != env.task.ID {
		t.Fatalf("unexpected entry %+v", saved.entry)
	}
}

func TestValidateHours(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"1.5", true},
		{"0.01", true},
		{"0", false},
		{"-1", false},
		{"0.001", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validateHours(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("validateHours(%q) = %v, want ok=%v", tt.in, err, tt.ok)
		}
	}
}

// ============================================================
// Dashboard and progress views
// ============================================================

func TestDashboardLoad(t *testing.T) {
	env := newTestEnv(t)
	d := newDashboardModel(env.builder, testUser)
	d.setSize(120, 40)

	if !strings.Contains(d.view(), "Loading") {
		t.Fatal("expected loading placeholder")
	}
	d, _ = d.update(d.loadData()())
	if d.data.Summary.Tasks.Total != 2 || d.data.Summary.Projects.Total != 1 {
		t.Fatalf("unexpected summary %+v", d.data.Summary)
	}
	if len(d.data.RecentTasks) != 1 {
		t.Fatalf("expected only my task in recent list, got %d", len(d.data.RecentTasks))
	}
	if !strings.Contains(d.view(), "Landing page") {
		t.Fatal("dashboard should list my recent task")
	}
}

func TestProgressLoadAndNavigate(t *testing.T) {
	env := newTestEnv(t)
	today := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	env.store.CreateTimeEntry(context.Background(), env.task.ID, model.NewTimeEntry{HoursSpent: 3, WorkDate: model.DateOf(today)})

	p := newProgressModel(env.builder, testUser)
	p.now = func() time.Time { return today }
	p.setSize(120, 50)

	p, _ = p.update(p.refresh()())
	if len(p.data.Rollup) != analytics.DefaultWindowDays {
		t.Fatalf("expected %d buckets, got %d", analytics.DefaultWindowDays, len(p.data.Rollup))
	}
	if p.data.Rollup[len(p.data.Rollup)-1].Hours != 3 {
		t.Fatalf("today's bucket should hold 3h, got %+v", p.data.Rollup)
	}
	if !strings.Contains(p.view(), "My Progress") {
		t.Fatal("progress view should render")
	}

	p, cmd := p.update(tea.KeyMsg{Type: tea.KeyLeft})
	if p.offset != 1 || cmd == nil {
		t.Fatal("left should move one window back")
	}
	p, _ = p.update(cmd())
	total, _ := analytics.RollupTotal(p.data.Rollup)
	if total != 0 {
		t.Fatalf("previous window should be empty, got %.1f", total)
	}

	p, _ = p.update(tea.KeyMsg{Type: tea.KeyRight})
	p, _ = p.update(tea.KeyMsg{Type: tea.KeyRight})
	if p.offset != 0 {
		t.Fatalf("offset should not go below 0, got %d", p.offset)
	}
}

// ============================================================
// Settings
// ============================================================

func TestPositiveInt(t *testing.T) {
	for in, ok := range map[string]bool{"7": true, " 3 ": true, "0": false, "-2": false, "x": false} {
		if err := positiveInt(in); (err == nil) != ok {
			t.Errorf("positiveInt(%q) = %v, want ok=%v", in, err, ok)
		}
	}
}

func TestSettingsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.DBPath = "/tmp/tl.db"
	s := newSettingsModel(cfg, path)
	*s.windowDays = "14"
	*s.recentLimit = "3"
	*s.timezone = "UTC"
	*s.tickInterval = "2s"

	msg := s.save()()
	saved, ok := msg.(settingsSavedMsg)
	if !ok {
		t.Fatalf("expected settingsSavedMsg, got %#v", msg)
	}
	if saved.cfg.WindowDays != 14 || cfg.WindowDays != 7 {
		t.Fatal("save should write an edited copy")
	}

	t.Setenv("TASKLOG_API_URL", "")
	t.Setenv("TASKLOG_TOKEN", "")
	t.Setenv("TASKLOG_USER", "")
	loaded, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.WindowDays != 14 || loaded.RecentLimit != 3 || loaded.TickInterval != "2s" {
		t.Fatalf("unexpected saved config %+v", loaded)
	}
}

func TestSettingsSaveRejectsInvalid(t *testing.T) {
	s := newSettingsModel(config.Default(), filepath.Join(t.TempDir(), "config.toml"))
	*s.windowDays = "7"
	*s.recentLimit = "5"
	*s.timezone = "Nowhere/Special"
	*s.tickInterval = "1s"

	status, ok := s.save()().(statusMsg)
	if !ok || !status.isError {
		t.Fatal("expected an error status for an unknown time zone")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatHelpers(t *testing.T) {
	if got := formatHours(1.25); got != "1.2h" && got != "1.3h" {
		t.Fatalf("formatHours = %q", got)
	}
	if got := formatDuration(time.Hour + time.Minute + time.Second); got != "01:01:01" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if bar(50, 0, model.ColorSuccess) != "" {
		t.Fatal("zero-width bar should be empty")
	}
	if bar(150, 10, model.ColorSuccess) == "" {
		t.Fatal("overfull bar should still render")
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	if viewNames[viewProgress] != "Progress" {
		t.Fatalf("unexpected name for progress view: %q", viewNames[viewProgress])
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t)

	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("help and export picker should be hidden by default")
	}
	if app.isFormActive() || app.TimerActive() {
		t.Fatal("no forms or timers should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = m.(App)

	for i := range viewNames {
		app.activeView = viewState(i)
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t)
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
	env := newTestEnv(t)
	app := env.app(t)
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusAndTimerFooter(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t)
	app.width = 160
	app.height = 40

	m, _ := app.Update(statusMsg{text: "test status"})
	app = m.(App)
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}

	app.tasks.timer.start(env.task)
	if !strings.Contains(app.renderFooter(), "●") {
		t.Fatal("footer should show the running timer")
	}
	app.Close()
	if env.sched.cancelled != 1 {
		t.Fatalf("Close should cancel the tick, got %d", env.sched.cancelled)
	}
}

func TestAppTabSwitching(t *testing.T) {
	env := newTestEnv(t)
	app := env.app(t)

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	app = m.(App)
	if app.activeView != viewProgress || cmd == nil {
		t.Fatal("3 should switch to progress and load it")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewSettings {
		t.Fatalf("tab should advance to settings, got %d", app.activeView)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewDashboard {
		t.Fatalf("tab should wrap to dashboard, got %d", app.activeView)
	}
}

func TestAppExport(t *testing.T) {
	env := newTestEnv(t)
	env.store.CreateTimeEntry(context.Background(), env.task.ID, model.NewTimeEntry{HoursSpent: 1, WorkDate: model.NewDate(2024, 6, 10)})
	app := env.app(t)

	for format := range exportFormats {
		msg := app.doExport(format)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg, got %#v", format, msg)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("format %d: export file missing: %v", format, err)
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
// Styles
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
		{"timerIdle", func() string { return timerStyle(timer.Idle).Render("test") }},
		{"timerRunning", func() string { return timerStyle(timer.Running).Render("test") }},
		{"timerStopped", func() string { return timerStyle(timer.Stopped).Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"gold", func() string { return tierStyle(analytics.TierGold).Render("test") }},
		{"silver", func() string { return tierStyle(analytics.TierSilver).Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

var _ timer.Scheduler = (*fakeScheduler)(nil)
