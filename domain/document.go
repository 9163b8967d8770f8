package domain

import (
	"context"
	"strings"
	"time"
)

type Document struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	ProjectID   int       `json:"projectId"`
	ProjectName string    `json:"projectName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (d *Document) Validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(d.Type) == "" {
		fields["type"] = "type is required"
	}
	if d.ProjectID <= 0 {
		fields["projectId"] = "projectId is required"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

type DocumentRepository interface {
	GetByID(ctx context.Context, id int) (*Document, error)
	GetAll(ctx context.Context) ([]Document, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id int) error
}
