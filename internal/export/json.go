package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	TotalHours float64     `json:"total_hours"`
	Entries    []jsonEntry `json:"entries"`
	Daily      []jsonDay   `json:"daily,omitempty"`
}

type jsonEntry struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"task_id"`
	Task        string  `json:"task"`
	WorkDate    string  `json:"work_date"`
	HoursSpent  float64 `json:"hours_spent"`
	Duration    string  `json:"duration"`
	User        string  `json:"user,omitempty"`
	Description string  `json:"description,omitempty"`
}

type jsonDay struct {
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// ToJSON writes entries and, when given, the daily rollup they came from.
func ToJSON(entries []model.TimeEntry, tasks map[model.ID]model.Task, daily []analytics.DayBucket, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		TotalHours: analytics.TotalHours(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID.String(),
			TaskID:      e.TaskID.String(),
			Task:        taskTitle(tasks, e.TaskID),
			WorkDate:    e.WorkDate.Key(),
			HoursSpent:  e.HoursSpent.Float(),
			Duration:    formatDuration(e.HoursSpent.Float()),
			User:        userName(e),
			Description: e.Description,
		})
	}
	for _, b := range daily {
		export.Daily = append(export.Daily, jsonDay{Date: b.Date.Key(), Hours: b.Hours, Sessions: b.Sessions})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
