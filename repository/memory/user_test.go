package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotecollab/api/domain"
)

func TestUserInsertDuplicateEmailIsUniqueViolation(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	first := &domain.User{Name: "Ada", Email: "ada@x.com", PasswordHash: "x", Role: domain.RoleDeveloper}
	require.NoError(t, repo.Insert(ctx, first))

	second := &domain.User{Name: "Other Ada", Email: "ada@x.com", PasswordHash: "y", Role: domain.RoleTester}
	err := repo.Insert(ctx, second)
	require.Error(t, err)

	// Callers match the postgres unique-violation code, so the fake must
	// report the same typed error the driver would.
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
	assert.Equal(t, "users_email_key", pgErr.ConstraintName)
}
