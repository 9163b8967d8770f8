package domain

import (
	"context"
	"strings"
	"time"
)

const (
	RoleDeveloper      = "developer"
	RoleDesigner       = "designer"
	RoleProjectManager = "project-manager"
	RoleTester         = "tester"
)

// ValidRole reports whether role is one of the known team roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDeveloper, RoleDesigner, RoleProjectManager, RoleTester:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TasksCount   int       `json:"tasksCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the registration fields. Password length is checked by the
// auth handler since only the hash reaches the domain layer.
func (u *User) Validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(u.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(u.Email) == "" {
		fields["email"] = "email is required"
	} else if !strings.Contains(u.Email, "@") {
		fields["email"] = "email is malformed"
	}
	if !ValidRole(u.Role) {
		fields["role"] = "role must be one of: developer, designer, project-manager, tester"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetAll(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}
