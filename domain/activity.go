package domain

import (
	"context"
	"time"
)

const (
	ActivityUserRegistered  = "user-registered"
	ActivityProjectCreated  = "project-created"
	ActivityProjectDeleted  = "project-deleted"
	ActivityTaskCreated     = "task-created"
	ActivityTaskDeleted     = "task-deleted"
	ActivityDocumentCreated = "document-created"
	ActivityDocumentDeleted = "document-deleted"
)

// Activity is an append-only feed entry. There is no update or delete surface.
type Activity struct {
	ID          int       `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ActivityRepository interface {
	Insert(ctx context.Context, activity *Activity) error
	GetRecent(ctx context.Context, limit int) ([]Activity, error)
}
