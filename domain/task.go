package domain

import (
	"context"
	"strings"
	"time"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusReview     = "review"
	TaskStatusCompleted  = "completed"
)

const (
	TaskPriorityHigh   = "High"
	TaskPriorityMedium = "Medium"
	TaskPriorityLow    = "Low"
)

// ValidTaskStatus reports whether status is a known kanban column.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidTaskPriority reports whether priority is a known priority level.
func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

type Task struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ProjectID    int       `json:"projectId"`
	ProjectName  string    `json:"projectName,omitempty"`
	AssigneeID   int       `json:"assigneeId"`
	AssigneeName string    `json:"assigneeName,omitempty"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	DueDate      time.Time `json:"dueDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks required fields and enum values. Referential checks against
// the project and assignee happen at the handler with the repositories.
func (t *Task) Validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(t.Title) == "" {
		fields["title"] = "title is required"
	}
	if t.ProjectID <= 0 {
		fields["projectId"] = "projectId is required"
	}
	if t.AssigneeID <= 0 {
		fields["assigneeId"] = "assigneeId is required"
	}
	if t.Status != "" && !ValidTaskStatus(t.Status) {
		fields["status"] = "status must be one of: todo, in-progress, review, completed"
	}
	if t.Priority != "" && !ValidTaskPriority(t.Priority) {
		fields["priority"] = "priority must be one of: High, Medium, Low"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// Task list ordering accepted by GetAll.
const (
	TaskSortLatest   = "latest"
	TaskSortDeadline = "deadline"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id int) (*Task, error)
	// GetAll returns tasks denormalized with project and assignee names,
	// ordered by sort (TaskSortLatest, TaskSortDeadline or empty for id order).
	GetAll(ctx context.Context, sort string) ([]Task, error)
	Count(ctx context.Context) (int, error)
	// Insert creates the task and adjusts the project and assignee task
	// counters in the same transaction.
	Insert(ctx context.Context, task *Task) error
	Update(ctx context.Context, task *Task) error
	// Delete removes the task and adjusts the counters in the same
	// transaction.
	Delete(ctx context.Context, id int) error
}
