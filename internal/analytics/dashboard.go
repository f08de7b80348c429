package analytics

import (
	"slices"

	"github.com/sadopc/tasklog/internal/model"
)

// DefaultRecentLimit bounds the recent tasks and projects lists.
const DefaultRecentLimit = 5

type ProjectCounts struct {
	Total      int
	InProgress int
	Completed  int
}

type TaskCounts struct {
	Total      int
	Open       int // not started
	InProgress int
	Review     int
	Completed  int
}

type DashboardSummary struct {
	Projects       ProjectCounts
	Tasks          TaskCounts
	PendingReviews int
}

// TaskCompletion is the percentage of tasks completed, 0 with no tasks.
func (d DashboardSummary) TaskCompletion() float64 {
	return Percent(float64(d.Tasks.Completed), float64(d.Tasks.Total))
}

// ProjectCompletion is the percentage of projects completed.
func (d DashboardSummary) ProjectCompletion() float64 {
	return Percent(float64(d.Projects.Completed), float64(d.Projects.Total))
}

// ReviewShare is the percentage of tasks waiting for review.
func (d DashboardSummary) ReviewShare() float64 {
	return Percent(float64(d.PendingReviews), float64(d.Tasks.Total))
}

// DashboardStats counts projects and tasks by status.
func DashboardStats(projects []model.Project, tasks []model.Task) DashboardSummary {
	var d DashboardSummary
	d.Projects.Total = len(projects)
	for _, p := range projects {
		switch p.Status {
		case model.ProjectInProgress:
			d.Projects.InProgress++
		case model.ProjectCompleted:
			d.Projects.Completed++
		}
	}
	d.Tasks.Total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case model.TaskNotStarted:
			d.Tasks.Open++
		case model.TaskInProgress:
			d.Tasks.InProgress++
		case model.TaskReview:
			d.Tasks.Review++
		case model.TaskCompleted:
			d.Tasks.Completed++
		}
	}
	d.PendingReviews = d.Tasks.Review
	return d
}

// RecentTasks returns up to limit tasks assigned to userID, most recently
// updated first. Ties keep ascending ID order.
func RecentTasks(tasks []model.Task, userID model.ID, limit int) []model.Task {
	mine := TasksForUser(tasks, userID)
	slices.SortStableFunc(mine, func(a, b model.Task) int {
		return compareRecent(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano(), a.ID, b.ID)
	})
	return head(mine, limit)
}

// RecentProjects returns up to limit projects, most recently updated first.
func RecentProjects(projects []model.Project, limit int) []model.Project {
	out := slices.Clone(projects)
	slices.SortStableFunc(out, func(a, b model.Project) int {
		return compareRecent(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano(), a.ID, b.ID)
	})
	return head(out, limit)
}

func compareRecent(aUpdated, bUpdated int64, aID, bID model.ID) int {
	switch {
	case aUpdated > bUpdated:
		return -1
	case aUpdated < bUpdated:
		return 1
	case aID.Less(bID):
		return -1
	case bID.Less(aID):
		return 1
	}
	return 0
}

func head[T any](s []T, limit int) []T {
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
