package analytics

import (
	"time"

	"github.com/sadopc/tasklog/internal/model"
)

// DefaultWindowDays is the trailing window of the daily rollup.
const DefaultWindowDays = 7

// DayBucket is one calendar day of logged work.
type DayBucket struct {
	Date     model.Date
	Hours    float64
	Sessions int
}

// Label is the short chart label, e.g. "Jun 03".
func (b DayBucket) Label() string {
	return b.Date.Format("Jan 02")
}

// DailyRollup buckets entries into exactly days calendar days ending at
// today, oldest first. today is read in loc; work dates are compared by
// calendar fields only. days < 1 falls back to DefaultWindowDays.
func DailyRollup(entries []model.TimeEntry, today time.Time, loc *time.Location, days int) []DayBucket {
	if days < 1 {
		days = DefaultWindowDays
	}
	end := model.DateIn(today, loc)
	start := end.AddDays(-(days - 1))

	buckets := make([]DayBucket, days)
	index := make(map[string]int, days)
	for i := range buckets {
		d := start.AddDays(i)
		buckets[i].Date = d
		index[d.Key()] = i
	}

	for _, e := range entries {
		i, ok := index[e.WorkDate.Key()]
		if !ok {
			continue
		}
		buckets[i].Hours += usableHours(e.HoursSpent)
		buckets[i].Sessions++
	}
	return buckets
}

// RollupTotal sums hours and sessions across buckets.
func RollupTotal(buckets []DayBucket) (hours float64, sessions int) {
	for _, b := range buckets {
		hours += b.Hours
		sessions += b.Sessions
	}
	return hours, sessions
}
