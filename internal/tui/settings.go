package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/config"
)

type settingsModel struct {
	cfg    *config.Config
	path   string
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	windowDays   *string
	recentLimit  *string
	timezone     *string
	tickInterval *string
}

func newSettingsModel(cfg *config.Config, path string) settingsModel {
	wd, rl, tz, ti := "", "", "", ""
	if cfg == nil {
		cfg = config.Default()
	}
	return settingsModel{
		cfg:          cfg,
		path:         path,
		windowDays:   &wd,
		recentLimit:  &rl,
		timezone:     &tz,
		tickInterval: &ti,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsSavedMsg struct {
	cfg *config.Config
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsSavedMsg:
		s.cfg = msg.cfg
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.windowDays = strconv.Itoa(s.cfg.WindowDays)
	*s.recentLimit = strconv.Itoa(s.cfg.RecentLimit)
	*s.timezone = s.cfg.Timezone
	*s.tickInterval = s.cfg.TickInterval

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Rollup window (days)").Value(s.windowDays).Validate(positiveInt),
			huh.NewInput().Title("Recent items shown").Value(s.recentLimit).Validate(positiveInt),
		).Title("Analytics"),
		huh.NewGroup(
			huh.NewInput().Title("Time zone").Placeholder("Local").Value(s.timezone).
				Validate(func(v string) error {
					if v == "" || v == "Local" {
						return nil
					}
					_, err := time.LoadLocation(v)
					return err
				}),
			huh.NewInput().Title("Timer refresh interval").Placeholder("1s").Value(s.tickInterval).
				Validate(func(v string) error {
					d, err := time.ParseDuration(v)
					if err != nil {
						return err
					}
					if d <= 0 {
						return fmt.Errorf("must be positive")
					}
					return nil
				}),
		).Title("Timer"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save()
	}

	return s, cmd
}

// save writes the edited copy; the running session keeps its settings until
// the next launch.
func (s settingsModel) save() tea.Cmd {
	next := *s.cfg
	next.WindowDays, _ = strconv.Atoi(strings.TrimSpace(*s.windowDays))
	next.RecentLimit, _ = strconv.Atoi(strings.TrimSpace(*s.recentLimit))
	next.Timezone = strings.TrimSpace(*s.timezone)
	next.TickInterval = strings.TrimSpace(*s.tickInterval)
	path := s.path

	return func() tea.Msg {
		if err := next.Validate(); err != nil {
			return errorStatus("Settings not saved: %v", err)
		}
		if path == "" {
			return statusMsg{text: "No config file in use; settings apply to this session only", isError: true}
		}
		if err := config.Save(path, &next); err != nil {
			return errorStatus("Settings not saved: %v", err)
		}
		return settingsSavedMsg{cfg: &next}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	add := func(label, value string) {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value)))
	}
	add("backend", s.cfg.Backend)
	if s.cfg.Backend == config.BackendLocal {
		add("database", s.cfg.DBPath)
	} else {
		add("api url", s.cfg.APIURL)
	}
	add("user", s.cfg.UserID)
	add("rollup window", fmt.Sprintf("%d days", s.cfg.WindowDays))
	add("recent items", strconv.Itoa(s.cfg.RecentLimit))
	add("time zone", s.cfg.Timezone)
	add("timer refresh", s.cfg.TickInterval)

	rows = append(rows, "", titleStyle.Render("Achievement rules"))
	for _, r := range s.cfg.Rules() {
		rows = append(rows, fmt.Sprintf("  %-8s %-6s %6.0f  %s", r.Category, r.Tier, r.Threshold, r.Title))
	}

	rows = append(rows, "")
	if s.path != "" {
		rows = append(rows, mutedStyle.Render("  "+s.path))
	}
	rows = append(rows, mutedStyle.Render("  Press enter to edit. Changes apply on next launch."))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
