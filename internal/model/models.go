package model

import "time"

type Project struct {
	ID          ID            `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Task struct {
	ID             ID         `json:"id"`
	ProjectID      ID         `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	EstimatedHours Hours      `json:"estimated_hours"`
	AssignedTo     *ID        `json:"assigned_to"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AssignedToUser reports whether the task is assigned to userID.
func (t Task) AssignedToUser(userID ID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

type TimeEntry struct {
	ID          ID        `json:"id"`
	TaskID      ID        `json:"task_id"`
	UserID      ID        `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	HoursSpent  Hours     `json:"hours_spent"`
	WorkDate    Date      `json:"work_date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
