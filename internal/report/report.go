// Package report fetches the collections a view needs, concurrently, and
// runs the analytics over whatever resolved. A failed fetch is recorded on
// the view instead of aborting it, except where the view has nothing to
// show without it.
package report

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
)

// Source is the backend collaborator. Both the REST client and the SQLite
// store satisfy it.
type Source interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetTask(ctx context.Context, id model.ID) (model.Task, error)
	ListTaskTimeEntries(ctx context.Context, taskID model.ID) ([]model.TimeEntry, error)
	ListAllTimeEntries(ctx context.Context) ([]model.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, taskID model.ID, e model.NewTimeEntry) (model.TimeEntry, error)
}

const (
	SectionProjects = "projects"
	SectionTasks    = "tasks"
	SectionEntries  = "time entries"
)

// Section is a part of a view whose data failed to load.
type Section struct {
	Name string
	Err  error
}

func (s Section) Error() string {
	return fmt.Sprintf("could not load %s: %v", s.Name, s.Err)
}

type Sections []Section

// Err returns the failure recorded for name, or nil.
func (s Sections) Err(name string) error {
	for _, sec := range s {
		if sec.Name == name {
			return sec.Err
		}
	}
	return nil
}

// PartialDataWarning means an optional collection was unavailable and the
// view was built as if it were empty.
type PartialDataWarning struct {
	Source string
	Err    error
}

func (w *PartialDataWarning) Error() string {
	return fmt.Sprintf("%s unavailable, showing partial data: %v", w.Source, w.Err)
}

func (w *PartialDataWarning) Unwrap() error { return w.Err }

type Options struct {
	Rules       []analytics.Rule
	Location    *time.Location
	WindowDays  int
	RecentLimit int
}

type Builder struct {
	src         Source
	eval        *analytics.Evaluator
	loc         *time.Location
	windowDays  int
	recentLimit int
}

func NewBuilder(src Source, opts Options) (*Builder, error) {
	rules := opts.Rules
	if len(rules) == 0 {
		rules = analytics.DefaultRules()
	}
	eval, err := analytics.NewEvaluator(rules)
	if err != nil {
		return nil, fmt.Errorf("achievement rules: %w", err)
	}
	b := &Builder{
		src:         src,
		eval:        eval,
		loc:         opts.Location,
		windowDays:  opts.WindowDays,
		recentLimit: opts.RecentLimit,
	}
	if b.loc == nil {
		b.loc = time.Local
	}
	if b.windowDays < 1 {
		b.windowDays = analytics.DefaultWindowDays
	}
	if b.recentLimit < 1 {
		b.recentLimit = analytics.DefaultRecentLimit
	}
	return b, nil
}

func (b *Builder) Location() *time.Location { return b.loc }

func (b *Builder) WindowDays() int { return b.windowDays }

// ============================================================
// Dashboard
// ============================================================

type Dashboard struct {
	Summary        analytics.DashboardSummary
	RecentTasks    []model.Task
	RecentProjects []model.Project
	Sections       Sections
}

// Dashboard loads projects and tasks together. Either failing leaves the
// other's counts intact.
func (b *Builder) Dashboard(ctx context.Context, userID model.ID) Dashboard {
	var (
		wg       sync.WaitGroup
		projects []model.Project
		tasks    []model.Task
		projErr  error
		taskErr  error
	)
	wg.Go(func() { projects, projErr = b.src.ListProjects(ctx) })
	wg.Go(func() { tasks, taskErr = b.src.ListTasks(ctx) })
	wg.Wait()

	var d Dashboard
	if projErr != nil {
		projects = nil
		d.Sections = append(d.Sections, Section{Name: SectionProjects, Err: projErr})
	}
	if taskErr != nil {
		tasks = nil
		d.Sections = append(d.Sections, Section{Name: SectionTasks, Err: taskErr})
	}

	d.Summary = analytics.DashboardStats(projects, tasks)
	d.RecentTasks = analytics.RecentTasks(tasks, userID, b.recentLimit)
	d.RecentProjects = analytics.RecentProjects(projects, b.recentLimit)
	return d
}

// ============================================================
// Task detail
// ============================================================

type TaskDetail struct {
	Task     model.Task
	Progress analytics.Progress
	// Entries are newest first.
	Entries  []model.TimeEntry
	Sections Sections
}

// TaskDetail fails outright when the task itself cannot be loaded; a
// missing task is reported as *model.NotFoundError. When only the entries
// fail, progress is computed as if none were logged.
func (b *Builder) TaskDetail(ctx context.Context, taskID model.ID) (TaskDetail, error) {
	var (
		wg       sync.WaitGroup
		task     model.Task
		entries  []model.TimeEntry
		taskErr  error
		entryErr error
	)
	wg.Go(func() { task, taskErr = b.src.GetTask(ctx, taskID) })
	wg.Go(func() { entries, entryErr = b.src.ListTaskTimeEntries(ctx, taskID) })
	wg.Wait()

	if taskErr != nil {
		return TaskDetail{}, fmt.Errorf("load task %s: %w", taskID, taskErr)
	}

	d := TaskDetail{Task: task}
	if entryErr != nil {
		entries = nil
		d.Sections = append(d.Sections, Section{Name: SectionEntries, Err: entryErr})
	}
	d.Progress = analytics.CalculateProgress(task, entries)
	d.Entries = analytics.NewestEntriesFirst(entries)
	return d, nil
}

// ============================================================
// User progress
// ============================================================

type TaskProgress struct {
	Task     model.Task
	Progress analytics.Progress
}

type UserProgress struct {
	Stats        analytics.UserStats
	Rollup       []analytics.DayBucket
	Distribution []analytics.StatusBucket
	Achievements []analytics.Achievement
	Tasks        []TaskProgress
	Sections     Sections
	Warnings     []*PartialDataWarning
}

// UserProgress scopes tasks and entries to userID and aggregates them. The
// global entries endpoint is optional: if it fails the view is built from
// tasks alone and a warning is attached.
func (b *Builder) UserProgress(ctx context.Context, userID model.ID, today time.Time) UserProgress {
	var (
		wg       sync.WaitGroup
		tasks    []model.Task
		entries  []model.TimeEntry
		taskErr  error
		entryErr error
	)
	wg.Go(func() { tasks, taskErr = b.src.ListTasks(ctx) })
	wg.Go(func() { entries, entryErr = b.src.ListAllTimeEntries(ctx) })
	wg.Wait()

	var p UserProgress
	if taskErr != nil {
		tasks = nil
		p.Sections = append(p.Sections, Section{Name: SectionTasks, Err: taskErr})
	}
	if entryErr != nil {
		entries = nil
		w := &PartialDataWarning{Source: SectionEntries, Err: entryErr}
		log.Printf("user progress: %v", w)
		p.Warnings = append(p.Warnings, w)
	}

	mine := analytics.TasksForUser(tasks, userID)
	logged := analytics.EntriesForUser(entries, userID)

	p.Stats = analytics.ComputeUserStats(mine, logged)
	p.Rollup = analytics.DailyRollup(logged, today, b.loc, b.windowDays)
	p.Distribution = analytics.TaskDistribution(mine)
	p.Achievements = b.eval.Evaluate(p.Stats.Achievements())
	for _, t := range mine {
		p.Tasks = append(p.Tasks, TaskProgress{
			Task:     t,
			Progress: analytics.CalculateProgress(t, analytics.EntriesForTask(entries, t.ID)),
		})
	}
	return p
}

// ============================================================
// Manual logging
// ============================================================

// LogTime validates e locally and submits it. Invalid entries never reach
// the backend.
func (b *Builder) LogTime(ctx context.Context, taskID model.ID, e model.NewTimeEntry) (model.TimeEntry, error) {
	if err := e.Validate(); err != nil {
		return model.TimeEntry{}, err
	}
	entry, err := b.src.CreateTimeEntry(ctx, taskID, e)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("log time on task %s: %w", taskID, err)
	}
	return entry, nil
}

// ============================================================
// Export
// ============================================================

type Export struct {
	// Entries are the user's, newest first.
	Entries []model.TimeEntry
	Tasks   map[model.ID]model.Task
	Daily   []analytics.DayBucket
}

// Export gathers userID's time entries for writing to disk. The entries
// are required; task titles are best effort.
func (b *Builder) Export(ctx context.Context, userID model.ID, today time.Time) (Export, error) {
	var (
		wg       sync.WaitGroup
		tasks    []model.Task
		entries  []model.TimeEntry
		taskErr  error
		entryErr error
	)
	wg.Go(func() { tasks, taskErr = b.src.ListTasks(ctx) })
	wg.Go(func() { entries, entryErr = b.src.ListAllTimeEntries(ctx) })
	wg.Wait()

	if entryErr != nil {
		return Export{}, fmt.Errorf("load %s: %w", SectionEntries, entryErr)
	}
	if taskErr != nil {
		log.Printf("export: task titles unavailable: %v", taskErr)
		tasks = nil
	}

	mine := analytics.EntriesForUser(entries, userID)
	ex := Export{
		Entries: analytics.NewestEntriesFirst(mine),
		Tasks:   make(map[model.ID]model.Task, len(tasks)),
		Daily:   analytics.DailyRollup(mine, today, b.loc, b.windowDays),
	}
	for _, t := range tasks {
		ex.Tasks[t.ID] = t
	}
	return ex, nil
}
