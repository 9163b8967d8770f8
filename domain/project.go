package domain

import (
	"context"
	"strings"
	"time"
)

const (
	ProjectStatusNotStarted = "Not Started"
	ProjectStatusInProgress = "In Progress"
	ProjectStatusCompleted  = "Completed"
	ProjectStatusOnHold     = "On Hold"
)

// ValidProjectStatus reports whether status is a known project status.
func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusNotStarted, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusOnHold:
		return true
	}
	return false
}

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int       `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
	Team        []int     `json:"team"`
	TasksCount  int       `json:"tasksCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the name, status and date range. An end date equal to the
// start date is allowed, and either date may be unset.
func (p *Project) Validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "name is required"
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		fields["endDate"] = "end date must be on or after start date"
	}
	if p.Status != "" && !ValidProjectStatus(p.Status) {
		fields["status"] = "status must be one of: Not Started, In Progress, Completed, On Hold"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id int) (*Project, error)
	GetAll(ctx context.Context) ([]Project, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id int) error
	AddMember(ctx context.Context, projectID, userID int) error
	RemoveMember(ctx context.Context, projectID, userID int) error
}
