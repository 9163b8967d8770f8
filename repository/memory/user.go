package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
)

// errDuplicateEmail is the same typed error the postgres driver reports so
// the handlers' conflict mapping works against both stores.
var errDuplicateEmail = &pgconn.PgError{
	Code:           "23505",
	Message:        `duplicate key value violates unique constraint "users_email_key"`,
	ConstraintName: "users_email_key",
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		ret = append(ret, *user)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.users), nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return errDuplicateEmail
		}
	}
	user.ID = r.store.id()
	user.CreatedAt = r.store.now()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name = user.Name
	existing.Role = user.Role
	existing.PasswordHash = user.PasswordHash
	return nil
}
