package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/tasklog/internal/export"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/store"
	"github.com/sadopc/tasklog/internal/timer"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print project and task counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		d := b.builder.Dashboard(cmd.Context(), b.userID)
		s := d.Summary
		printSections(d.Sections)
		fmt.Printf("Projects: %d (%d in progress, %d completed)\n",
			s.Projects.Total, s.Projects.InProgress, s.Projects.Completed)
		fmt.Printf("Tasks:    %d (%d open, %d in progress, %d review, %d done)\n",
			s.Tasks.Total, s.Tasks.Open, s.Tasks.InProgress, s.Tasks.Review, s.Tasks.Completed)
		fmt.Printf("Task completion %.1f%%, project completion %.1f%%, %d pending reviews\n",
			s.TaskCompletion(), s.ProjectCompletion(), s.PendingReviews)

		if len(d.RecentTasks) > 0 {
			fmt.Println()
			rows := make([][]string, 0, len(d.RecentTasks))
			for _, t := range d.RecentTasks {
				rows = append(rows, []string{t.ID.String(), t.Title, t.Status.Label(), string(t.Priority)})
			}
			fmt.Println(renderTable([]string{"ID", "My recent tasks", "Status", "Priority"}, rows))
		}
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print your daily rollup, statistics and achievements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		end := time.Now()
		if v, _ := cmd.Flags().GetString("date"); v != "" {
			d, err := model.ParseDate(v)
			if err != nil {
				return err
			}
			// noon in the configured zone keeps the calendar day
			t := d.Time()
			end = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, b.builder.Location())
		}

		p := b.builder.UserProgress(cmd.Context(), b.userID, end)
		printSections(p.Sections)
		for _, w := range p.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		}

		rows := make([][]string, 0, len(p.Rollup))
		for _, d := range p.Rollup {
			rows = append(rows, []string{d.Date.Key(), fmt.Sprintf("%.2f", d.Hours), fmt.Sprint(d.Sessions)})
		}
		fmt.Println(renderTable([]string{"Date", "Hours", "Sessions"}, rows))

		st := p.Stats
		fmt.Printf("Tasks %d/%d completed (%.1f%%), %.2fh logged of %.2fh estimated, efficiency %.1f%%\n",
			st.CompletedTasks, st.TotalTasks, st.CompletionRate, st.TotalHoursLogged, st.TotalEstimatedHours, st.Efficiency)

		for _, a := range p.Achievements {
			fmt.Printf("[%s] %s: %s\n", a.Tier, a.Title, a.Description)
		}
		for _, bucket := range p.Distribution {
			fmt.Printf("%-12s %d\n", bucket.Label(), bucket.Count)
		}
		return nil
	},
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Show and manage tasks",
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Print a task's progress and time entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		d, err := b.builder.TaskDetail(cmd.Context(), model.ID(args[0]))
		if err != nil {
			if model.IsNotFound(err) {
				return fmt.Errorf("task %s does not exist", args[0])
			}
			return err
		}

		t, p := d.Task, d.Progress
		fmt.Printf("%s  [%s, %s]\n", t.Title, t.Status.Label(), t.Priority)
		fmt.Printf("%.2fh of %.2fh (%.1f%%, %s), %s\n",
			p.TotalLoggedHours, p.EstimatedHours, p.ProgressPercentage, p.Band(), p.RemainingLabel())
		if p.TotalLoggedHours > 0 {
			fmt.Printf("Efficiency %.1f%%\n", p.Efficiency)
		}
		printSections(d.Sections)

		if len(d.Entries) > 0 {
			rows := make([][]string, 0, len(d.Entries))
			for _, e := range d.Entries {
				user := e.UserName
				if user == "" {
					user = e.UserID.String()
				}
				rows = append(rows, []string{e.WorkDate.Key(), fmt.Sprintf("%.2f", e.HoursSpent.Float()), user, e.Description})
			}
			fmt.Println(renderTable([]string{"Date", "Hours", "User", "Description"}, rows))
		}
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task in the local database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()
		s, err := b.requireLocal()
		if err != nil {
			return err
		}

		project, _ := cmd.Flags().GetString("project")
		estimate, _ := cmd.Flags().GetFloat64("estimate")
		priority, _ := cmd.Flags().GetString("priority")
		assignee, _ := cmd.Flags().GetString("assign")
		description, _ := cmd.Flags().GetString("description")
		if assignee == "" {
			assignee = b.userID.String()
		}

		t, err := s.CreateTask(cmd.Context(), store.NewTask{
			ProjectID:      model.ID(project),
			Title:          args[0],
			Description:    description,
			Priority:       model.Priority(priority),
			EstimatedHours: estimate,
			AssignedTo:     model.ID(assignee),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created task %s: %s\n", t.ID, t.Title)
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Change a task's status in the local database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, ok := model.ParseTaskStatus(args[1])
		if !ok {
			return fmt.Errorf("unknown status %q", args[1])
		}
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()
		s, err := b.requireLocal()
		if err != nil {
			return err
		}
		if err := s.UpdateTaskStatus(cmd.Context(), model.ID(args[0]), status); err != nil {
			return err
		}
		fmt.Printf("Task %s is now %s\n", args[0], status.Label())
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project in the local database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()
		s, err := b.requireLocal()
		if err != nil {
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		status, _ := cmd.Flags().GetString("status")
		p, err := s.CreateProject(cmd.Context(), args[0], description, model.ProjectStatus(status))
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s: %s\n", p.ID, p.Name)
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log <task-id> <hours>",
	Short: "Log time on a task",
	Long: `Log a block of time on a task without running the timer.

Examples:
  tasklog log 12 1.5
  tasklog log 12 0.75 --date 2024-06-03 -m "code review"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := model.ParseHours(args[1])
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		date := model.DateIn(time.Now(), b.builder.Location())
		if v, _ := cmd.Flags().GetString("date"); v != "" {
			if date, err = model.ParseDate(v); err != nil {
				return err
			}
		}
		description, _ := cmd.Flags().GetString("message")

		e, err := b.builder.LogTime(cmd.Context(), model.ID(args[0]), model.NewTimeEntry{
			HoursSpent:  hours,
			WorkDate:    date,
			Description: strings.TrimSpace(description),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Logged %.2fh on task %s for %s\n", e.HoursSpent.Float(), e.TaskID, e.WorkDate.Key())
		return nil
	},
}

var timerCmd = &cobra.Command{
	Use:   "timer <task-id>",
	Short: "Time a work session on a task",
	Long: `Start a timer on a task. Press Enter (or Ctrl+C) to stop it; the session
is then logged as a time entry for today.`,
	Args: cobra.ExactArgs(1),
	RunE: runTimer,
}

func runTimer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	task, err := b.src.GetTask(ctx, model.ID(args[0]))
	if err != nil {
		return err
	}
	tick, err := b.cfg.Tick()
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("message")

	sched := timer.NewCronScheduler()
	defer sched.Stop()

	w := timer.New(task.ID, b.src,
		timer.WithScheduler(sched),
		timer.WithInterval(tick),
		timer.WithLocation(b.builder.Location()),
	)
	defer w.Close()
	if err := w.Start(); err != nil {
		return err
	}
	fmt.Printf("Timing %q. Press Enter or Ctrl+C to stop.\n", task.Title)

	stopped := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(stopped)
	}()
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

loop:
	for {
		select {
		case <-w.Ticks():
			fmt.Printf("\r%s ", timer.FormatDuration(w.Refresh()))
		case <-stopped:
			break loop
		case <-sigCtx.Done():
			break loop
		}
	}

	elapsed, err := w.Stop()
	if err != nil {
		return err
	}
	fmt.Printf("\rStopped at %s\n", timer.FormatDuration(elapsed))

	e, err := w.Save(ctx, strings.TrimSpace(description))
	if err != nil {
		w.Discard()
		return fmt.Errorf("session not logged: %w", err)
	}
	fmt.Printf("Logged %.2fh on %s\n", e.HoursSpent.Float(), e.WorkDate.Key())
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your time entries or daily rollup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.close()

		now := time.Now()
		ex, err := b.builder.Export(cmd.Context(), b.userID, now)
		if err != nil {
			return err
		}
		date := model.DateIn(now, b.builder.Location()).Key()

		var path string
		switch format {
		case "csv":
			path = filepath.Join(out, fmt.Sprintf("tasklog-export-%s.csv", date))
			err = export.ToCSV(ex.Entries, ex.Tasks, path)
		case "json":
			path = filepath.Join(out, fmt.Sprintf("tasklog-export-%s.json", date))
			err = export.ToJSON(ex.Entries, ex.Tasks, ex.Daily, path)
		case "rollup":
			path = filepath.Join(out, fmt.Sprintf("tasklog-daily-%s.csv", date))
			err = export.RollupToCSV(ex.Daily, path)
		default:
			return fmt.Errorf("unknown format %q (want csv, json or rollup)", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", len(ex.Entries), path)
		return nil
	},
}

func init() {
	progressCmd.Flags().String("date", "", "last day of the window (yyyy-mm-dd, default today)")

	taskAddCmd.Flags().StringP("project", "p", "", "project id (required)")
	taskAddCmd.Flags().Float64P("estimate", "e", 0, "estimated hours")
	taskAddCmd.Flags().String("priority", string(model.PriorityMedium), "low, medium, high or urgent")
	taskAddCmd.Flags().String("assign", "", "assignee user id (default: you)")
	taskAddCmd.Flags().StringP("description", "d", "", "task description")
	taskAddCmd.MarkFlagRequired("project")
	taskCmd.AddCommand(taskShowCmd, taskAddCmd, taskStatusCmd)

	projectAddCmd.Flags().StringP("description", "d", "", "project description")
	projectAddCmd.Flags().String("status", string(model.ProjectInProgress), "pending, in_progress, completed or on_hold")
	projectCmd.AddCommand(projectAddCmd)

	logCmd.Flags().String("date", "", "work date (yyyy-mm-dd, default today)")
	logCmd.Flags().StringP("message", "m", "", "what you worked on")

	timerCmd.Flags().StringP("message", "m", "", "what you worked on")

	exportCmd.Flags().StringP("format", "f", "csv", "csv, json or rollup")
	exportCmd.Flags().StringP("out", "o", ".", "output directory")

	rootCmd.AddCommand(dashboardCmd, progressCmd, taskCmd, projectCmd, logCmd, timerCmd, exportCmd)
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func printSections(secs report.Sections) {
	for _, s := range secs {
		fmt.Fprintf(os.Stderr, "warning: %v\n", s)
	}
}
