package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/report"
)

type progressModel struct {
	builder *report.Builder
	userID  model.ID
	now     func() time.Time
	width   int
	height  int

	offset int // windows back from today (0 = ending today)
	data   report.UserProgress
	loaded bool

	chart barchart.Model
}

func newProgressModel(b *report.Builder, userID model.ID) progressModel {
	return progressModel{
		builder: b,
		userID:  userID,
		now:     time.Now,
		chart:   barchart.New(60, 12),
	}
}

func (p *progressModel) setSize(w, h int) {
	p.width = w
	p.height = h
	if p.loaded {
		p.buildChart()
	}
}

type progressDataMsg struct {
	data report.UserProgress
}

// windowEnd is the last day of the displayed rollup window.
func (p progressModel) windowEnd() time.Time {
	days := p.builder.WindowDays()
	return p.now().AddDate(0, 0, -days*p.offset)
}

func (p progressModel) refresh() tea.Cmd {
	end := p.windowEnd()
	return func() tea.Msg {
		return progressDataMsg{data: p.builder.UserProgress(context.Background(), p.userID, end)}
	}
}

func (p progressModel) update(msg tea.Msg) (progressModel, tea.Cmd) {
	switch msg := msg.(type) {
	case progressDataMsg:
		p.data = msg.data
		p.loaded = true
		p.buildChart()
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			p.offset++
			return p, p.refresh()
		case key.Matches(msg, keys.Right):
			if p.offset > 0 {
				p.offset--
			}
			return p, p.refresh()
		case key.Matches(msg, keys.Refresh):
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p *progressModel) buildChart() {
	chartWidth := max(20, p.width-8)
	chartHeight := 10
	if p.height > 40 {
		chartHeight = 14
	}

	p.chart = barchart.New(chartWidth, chartHeight)

	hoursStyle := fg(colorPrimary)
	emptyStyle := fg(colorSubtle)

	var bars []barchart.BarData
	for _, b := range p.data.Rollup {
		style := hoursStyle
		if b.Hours == 0 {
			style = emptyStyle
		}
		bars = append(bars, barchart.BarData{
			Label:  b.Label(),
			Values: []barchart.BarValue{{Name: "hours", Value: b.Hours, Style: style}},
		})
	}

	p.chart.PushAll(bars)
	p.chart.Draw()
}

func (p progressModel) view() string {
	w := p.width - 4
	if !p.loaded {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading progress..."))
	}

	rollup := p.data.Rollup
	dateLabel := ""
	if len(rollup) > 0 {
		dateLabel = mutedStyle.Render(fmt.Sprintf("%s to %s",
			rollup[0].Date.Format("Jan 02"), rollup[len(rollup)-1].Date.Format("Jan 02, 2006")))
	}
	total, sessions := analytics.RollupTotal(rollup)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("My Progress"), "  ", dateLabel, "  ",
		highlightStyle.Render(fmt.Sprintf("%s in %d sessions", formatHours(total), sessions)),
	)

	var notices []string
	notices = append(notices, sectionErrors(p.data.Sections)...)
	for _, warn := range p.data.Warnings {
		notices = append(notices, warningStyle.Render("  ! "+warn.Error()))
	}

	half := (w - 1) / 2
	lower := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(half).Render(lipgloss.JoinVertical(lipgloss.Left,
			p.renderStats(), "", p.renderAchievements())),
		" ",
		lipgloss.NewStyle().Width(w-half-1).Render(p.renderDistribution(w-half-1)),
	)

	parts := []string{header}
	parts = append(parts, notices...)
	parts = append(parts, "", p.chart.View(), "", lower, "", p.renderTasks(w), "",
		mutedStyle.Render("  ←/→: move window  r: refresh"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (p progressModel) renderStats() string {
	s := p.data.Stats
	rows := []string{titleStyle.Render("Statistics")}
	rows = append(rows, fmt.Sprintf("  %-16s %d / %d", "Tasks completed", s.CompletedTasks, s.TotalTasks))
	rows = append(rows, fmt.Sprintf("  %-16s %.1f%%", "Completion rate", s.CompletionRate))
	rows = append(rows, fmt.Sprintf("  %-16s %s", "Hours logged", formatHours(s.TotalHoursLogged)))
	rows = append(rows, fmt.Sprintf("  %-16s %s", "Hours estimated", formatHours(s.TotalEstimatedHours)))
	rows = append(rows, fmt.Sprintf("  %-16s %.1f%%", "Efficiency", s.Efficiency))
	return strings.Join(rows, "\n")
}

func (p progressModel) renderAchievements() string {
	rows := []string{titleStyle.Render("Achievements")}
	if len(p.data.Achievements) == 0 {
		rows = append(rows, mutedStyle.Render("  None yet. Keep going!"))
		return strings.Join(rows, "\n")
	}
	for _, a := range p.data.Achievements {
		rows = append(rows, fmt.Sprintf("  %s %s", tierStyle(a.Tier).Render("★ "+a.Title), mutedStyle.Render(a.Description)))
	}
	return strings.Join(rows, "\n")
}

func (p progressModel) renderDistribution(w int) string {
	rows := []string{titleStyle.Render("Tasks by Status")}
	if len(p.data.Distribution) == 0 {
		rows = append(rows, mutedStyle.Render("  No tasks assigned"))
		return strings.Join(rows, "\n")
	}
	total := 0
	for _, b := range p.data.Distribution {
		total += b.Count
	}
	barWidth := max(5, min(w-28, 20))
	for _, b := range p.data.Distribution {
		rows = append(rows, fmt.Sprintf("  %s %-12s %s %3d",
			dot(b.ColorKey), b.Label(), bar(b.Share(total), barWidth, b.ColorKey), b.Count))
	}
	return strings.Join(rows, "\n")
}

func (p progressModel) renderTasks(w int) string {
	if len(p.data.Tasks) == 0 {
		return ""
	}
	barWidth := max(10, min(w-56, 24))
	rows := []string{titleStyle.Render("Task Progress")}
	limit := max(3, p.height-34)
	for i, tp := range p.data.Tasks {
		if i == limit {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(p.data.Tasks)-limit)))
			break
		}
		pr := tp.Progress
		rows = append(rows, fmt.Sprintf("  %-24s %s %5.1f%%  %s",
			truncate(tp.Task.Title, 24),
			bar(pr.ProgressPercentage, barWidth, pr.Band().Color()),
			pr.ProgressPercentage,
			mutedStyle.Render(pr.RemainingLabel()),
		))
	}
	return strings.Join(rows, "\n")
}
