package model

import "strings"

// ColorKey is a semantic color name shared by every status and priority
// mapping. Presentation layers translate it with Hex.
type ColorKey string

const (
	ColorInfo      ColorKey = "info"
	ColorWarning   ColorKey = "warning"
	ColorSecondary ColorKey = "secondary"
	ColorSuccess   ColorKey = "success"
	ColorError     ColorKey = "error"
	ColorDefault   ColorKey = "default"
)

func (c ColorKey) Hex() string {
	switch c {
	case ColorInfo:
		return "#2196F3"
	case ColorWarning:
		return "#FF9800"
	case ColorSecondary:
		return "#9C27B0"
	case ColorSuccess:
		return "#4CAF50"
	case ColorError:
		return "#F44336"
	default:
		return "#757575"
	}
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the known statuses in workflow order.
var TaskStatuses = []TaskStatus{TaskNotStarted, TaskInProgress, TaskReview, TaskCompleted}

// ParseTaskStatus normalizes s and reports whether it names a known status.
// Unknown values are returned as-is so they can still be bucketed.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Known()
}

func (s TaskStatus) Known() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskReview, TaskCompleted:
		return true
	}
	return false
}

// Label renders the status for display: "in_progress" becomes "in progress".
func (s TaskStatus) Label() string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// Color maps every status to a color; unknown statuses get ColorDefault.
func (s TaskStatus) Color() ColorKey {
	switch s {
	case TaskNotStarted:
		return ColorInfo
	case TaskInProgress:
		return ColorWarning
	case TaskReview:
		return ColorSecondary
	case TaskCompleted:
		return ColorSuccess
	default:
		return ColorDefault
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p Priority) Color() ColorKey {
	switch p {
	case PriorityLow:
		return ColorSuccess
	case PriorityMedium:
		return ColorWarning
	case PriorityHigh, PriorityUrgent:
		return ColorError
	default:
		return ColorDefault
	}
}

type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
)

var ProjectStatuses = []ProjectStatus{ProjectPending, ProjectInProgress, ProjectCompleted, ProjectOnHold}

func (s ProjectStatus) Known() bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

func (s ProjectStatus) Label() string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

func (s ProjectStatus) Color() ColorKey {
	switch s {
	case ProjectPending:
		return ColorInfo
	case ProjectInProgress:
		return ColorWarning
	case ProjectCompleted:
		return ColorSuccess
	case ProjectOnHold:
		return ColorError
	default:
		return ColorDefault
	}
}
