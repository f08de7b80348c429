package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
	"github.com/sadopc/tasklog/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewProgress
	viewSettings
)

var viewNames = []string{"Dashboard", "Tasks", "Progress", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type entrySavedMsg struct {
	entry model.TimeEntry
}

type timerStartedMsg struct{}

type timerStoppedMsg struct {
	elapsed time.Duration
}

// timerTickMsg is delivered when the running WorkTimer signals a tick.
type timerTickMsg struct {
	taskID model.ID
}

func errorStatus(format string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf(format, err), isError: true}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	return timer.FormatDuration(d)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func dot(c model.ColorKey) string {
	return fg(colorFor(c)).Render("●")
}

// bar renders a horizontal gauge of pct (0-100) in width cells.
func bar(pct float64, width int, c model.ColorKey) string {
	if width < 1 {
		return ""
	}
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	on := fg(colorFor(c)).Render(strings.Repeat("█", filled))
	off := fg(colorSubtle).Render(strings.Repeat("░", width-filled))
	return on + off
}

func sectionErrors(secs report.Sections) []string {
	var rows []string
	for _, s := range secs {
		rows = append(rows, errorStyle.Render("  ! "+s.Error()))
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
