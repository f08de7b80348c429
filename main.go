package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tasklog/internal/api"
	"github.com/sadopc/tasklog/internal/config"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/store"
	"github.com/sadopc/tasklog/internal/timer"
	"github.com/sadopc/tasklog/internal/tui"
)

// localUser owns time logged against a local database with no user_id set.
const localUser = "local"

var (
	configPath string
	debug      bool
	logFile    *os.File
)

var rootCmd = &cobra.Command{
	Use:   "tasklog",
	Short: "Time tracking and progress analytics for your tasks",
	Long: `tasklog times work on tasks, logs the sessions to a task backend and
shows progress, daily rollups and achievements.

Run without a subcommand to open the terminal UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/tasklog/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write diagnostics to debug.log in the config directory")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	if !debug && os.Getenv("TASKLOG_DEBUG") == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("locate config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "tasklog")
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	logFile = f
	return nil
}

// backend is the configured task backend plus everything derived from the
// config that commands share.
type backend struct {
	cfg     *config.Config
	cfgPath string
	userID  model.ID
	src     report.Source
	local   *store.Store // nil for the http backend
	builder *report.Builder
}

func openBackend(ctx context.Context) (*backend, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, fmt.Errorf("locate config: %w", err)
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	b := &backend{cfg: cfg, cfgPath: path, userID: model.ID(cfg.UserID)}
	switch cfg.Backend {
	case config.BackendLocal:
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if b.userID == "" {
			b.userID = localUser
		}
		b.local = s
		b.src = s.AsUser(b.userID)
	default:
		c, err := api.NewClient(ctx, cfg.APIURL, cfg.Token)
		if err != nil {
			return nil, err
		}
		b.src = c
	}

	loc, err := cfg.Location()
	if err != nil {
		b.close()
		return nil, err
	}
	b.builder, err = report.NewBuilder(b.src, report.Options{
		Rules:       cfg.Rules(),
		Location:    loc,
		WindowDays:  cfg.WindowDays,
		RecentLimit: cfg.RecentLimit,
	})
	if err != nil {
		b.close()
		return nil, err
	}
	log.Printf("backend %s, user %q", cfg.Backend, b.userID)
	return b, nil
}

func (b *backend) close() {
	if b.local != nil {
		b.local.Close()
	}
}

// requireLocal guards commands that write projects and tasks, which only
// the local database accepts.
func (b *backend) requireLocal() (*store.Store, error) {
	if b.local == nil {
		return nil, fmt.Errorf("this command needs backend = %q in %s", config.BackendLocal, b.cfgPath)
	}
	return b.local, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.close()

	tick, err := b.cfg.Tick()
	if err != nil {
		return err
	}
	sched := timer.NewCronScheduler()
	defer sched.Stop()

	app := tui.NewApp(tui.Options{
		Source:     b.src,
		Builder:    b.builder,
		UserID:     b.userID,
		Scheduler:  sched,
		Interval:   tick,
		Config:     b.cfg,
		ConfigPath: b.cfgPath,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	final, err := p.Run()
	if a, ok := final.(tui.App); ok {
		if a.TimerActive() {
			fmt.Fprintln(os.Stderr, "Unsaved timer session discarded.")
		}
		a.Close()
	}
	return err
}
