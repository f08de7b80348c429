// Package analytics turns task, project and time-entry collections into
// read-only metrics. Every function here is pure: it never mutates its
// inputs and returns the same result for the same arguments.
package analytics

import (
	"fmt"
	"math"

	"github.com/sadopc/tasklog/internal/model"
)

// Band classifies a task's time progress for display.
type Band string

const (
	BandStarted Band = "started"  // under half the estimate
	BandOnTrack Band = "on_track" // at least half
	BandWarning Band = "warning"  // at least 80%
	BandOver    Band = "over"     // logged more than estimated
)

func (b Band) Color() model.ColorKey {
	switch b {
	case BandOver:
		return model.ColorError
	case BandWarning:
		return model.ColorWarning
	case BandOnTrack:
		return model.ColorInfo
	default:
		return model.ColorSuccess
	}
}

// Progress is the time picture of one task.
type Progress struct {
	EstimatedHours     float64
	TotalLoggedHours   float64
	ProgressPercentage float64 // always within [0, 100]
	IsOvertime         bool
	OvertimeHours      float64
	RemainingHours     float64
	// Efficiency is estimated/logged as a percentage. It exceeds 100 when
	// a task comes in under its estimate and is 0 when nothing is logged.
	Efficiency float64
}

// Ratio returns num/den, or 0 when den is not positive.
func Ratio(num, den float64) float64 {
	if den <= 0 || math.IsNaN(num) || math.IsNaN(den) {
		return 0
	}
	return num / den
}

// Percent is Ratio scaled to a percentage.
func Percent(num, den float64) float64 {
	return Ratio(num, den) * 100
}

// usableHours is h, or 0 when h is negative or not finite.
func usableHours(h model.Hours) float64 {
	f := h.Float()
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// TotalHours sums hours over entries, skipping negative and non-finite ones.
func TotalHours(entries []model.TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		total += usableHours(e.HoursSpent)
	}
	return total
}

// CalculateProgress derives the progress of task from its time entries.
// Entries for other tasks must already be filtered out by the caller.
func CalculateProgress(task model.Task, entries []model.TimeEntry) Progress {
	estimated := usableHours(task.EstimatedHours)
	logged := TotalHours(entries)

	return Progress{
		EstimatedHours:     estimated,
		TotalLoggedHours:   logged,
		ProgressPercentage: math.Max(0, math.Min(100, Percent(logged, estimated))),
		IsOvertime:         logged > estimated,
		OvertimeHours:      math.Max(0, logged-estimated),
		RemainingHours:     math.Max(0, estimated-logged),
		Efficiency:         Percent(estimated, logged),
	}
}

func (p Progress) Band() Band {
	switch {
	case p.IsOvertime:
		return BandOver
	case p.ProgressPercentage >= 80:
		return BandWarning
	case p.ProgressPercentage >= 50:
		return BandOnTrack
	default:
		return BandStarted
	}
}

// EfficiencyRating is Efficiency capped at 100 for progress bars.
func (p Progress) EfficiencyRating() float64 {
	return math.Min(100, p.Efficiency)
}

// EfficiencyColor is success while within the estimate.
func (p Progress) EfficiencyColor() model.ColorKey {
	if p.TotalLoggedHours <= p.EstimatedHours {
		return model.ColorSuccess
	}
	return model.ColorError
}

// RemainingLabel reads "3.5h left" or "1.0h over".
func (p Progress) RemainingLabel() string {
	if p.IsOvertime {
		return fmt.Sprintf("%.1fh over", p.OvertimeHours)
	}
	return fmt.Sprintf("%.1fh left", p.RemainingHours)
}
