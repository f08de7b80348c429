// Package export writes time entries and daily rollups to CSV and JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/timer"
)

func ToCSV(entries []model.TimeEntry, tasks map[model.ID]model.Task, path string) error {
	return writeCSV(path, []string{"ID", "Task", "Date", "Hours", "Duration", "User", "Description"}, func(w *csv.Writer) error {
		for _, e := range entries {
			row := []string{
				e.ID.String(),
				taskTitle(tasks, e.TaskID),
				e.WorkDate.Key(),
				formatHours(e.HoursSpent.Float()),
				formatDuration(e.HoursSpent.Float()),
				userName(e),
				e.Description,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// RollupToCSV writes one row per day bucket, oldest first.
func RollupToCSV(buckets []analytics.DayBucket, path string) error {
	return writeCSV(path, []string{"Date", "Hours", "Sessions"}, func(w *csv.Writer) error {
		for _, b := range buckets {
			row := []string{b.Date.Key(), formatHours(b.Hours), strconv.Itoa(b.Sessions)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, rows func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func taskTitle(tasks map[model.ID]model.Task, id model.ID) string {
	if t, ok := tasks[id]; ok {
		return t.Title
	}
	return "Unknown"
}

func userName(e model.TimeEntry) string {
	if e.UserName != "" {
		return e.UserName
	}
	return e.UserID.String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func formatDuration(hours float64) string {
	return timer.FormatTime(int64(math.Round(hours * 3_600_000)))
}
