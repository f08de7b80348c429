package analytics

import (
	"slices"

	"github.com/sadopc/tasklog/internal/model"
)

// UserStats summarizes one user's tasks and logged time.
type UserStats struct {
	TotalTasks          int
	CompletedTasks      int
	TotalHoursLogged    float64
	TotalEstimatedHours float64
	CompletionRate      float64
	// Efficiency uses the same definition as Progress.Efficiency, across
	// all of the user's tasks.
	Efficiency float64
}

// Achievements projects the stats onto the figures rules are judged on.
func (s UserStats) Achievements() Stats {
	return Stats{CompletedTasks: s.CompletedTasks, TotalHours: s.TotalHoursLogged}
}

func ComputeUserStats(tasks []model.Task, entries []model.TimeEntry) UserStats {
	s := UserStats{
		TotalTasks:       len(tasks),
		TotalHoursLogged: TotalHours(entries),
	}
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			s.CompletedTasks++
		}
		s.TotalEstimatedHours += usableHours(t.EstimatedHours)
	}
	s.CompletionRate = Percent(float64(s.CompletedTasks), float64(s.TotalTasks))
	s.Efficiency = Percent(s.TotalEstimatedHours, s.TotalHoursLogged)
	return s
}

// TasksForUser keeps tasks assigned to userID, in input order.
func TasksForUser(tasks []model.Task, userID model.ID) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.AssignedToUser(userID) {
			out = append(out, t)
		}
	}
	return out
}

// EntriesForUser keeps entries logged by userID, in input order.
func EntriesForUser(entries []model.TimeEntry, userID model.ID) []model.TimeEntry {
	var out []model.TimeEntry
	for _, e := range entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesForTask keeps entries logged against taskID.
func EntriesForTask(entries []model.TimeEntry, taskID model.ID) []model.TimeEntry {
	var out []model.TimeEntry
	for _, e := range entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// NewestEntriesFirst returns a copy of entries ordered by work date, then
// creation time, newest first.
func NewestEntriesFirst(entries []model.TimeEntry) []model.TimeEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.TimeEntry) int {
		if !a.WorkDate.Equal(b.WorkDate) {
			if b.WorkDate.Before(a.WorkDate) {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// TaskFilter narrows a task list. Zero fields match everything.
type TaskFilter struct {
	ProjectID model.ID
	Status    model.TaskStatus
	Assignee  model.ID
}

func FilterTasks(tasks []model.Task, f TaskFilter) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Assignee != "" && !t.AssignedToUser(f.Assignee) {
			continue
		}
		out = append(out, t)
	}
	return out
}
