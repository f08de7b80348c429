package timer

import (
	"fmt"
	"time"
)

const msPerHour = 3_600_000

// FormatTime renders milliseconds as zero-padded HH:MM:SS using floor
// division. Hours are not wrapped at 24.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDuration is FormatTime for a time.Duration.
func FormatDuration(d time.Duration) string {
	return FormatTime(d.Milliseconds())
}

// HoursFromDuration converts elapsed time to fractional hours.
func HoursFromDuration(d time.Duration) float64 {
	return float64(d.Milliseconds()) / msPerHour
}
