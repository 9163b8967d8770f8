package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/remotecollab/api/domain"
)

type UserPostgresRepository struct {
	pool *pgxpool.Pool
}

func CreateUserTable() string {
	return `CREATE TABLE IF NOT EXISTS users
(
	id SERIAL NOT NULL PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	email VARCHAR(200) NOT NULL UNIQUE CHECK (email ~ '^[A-Za-z0-9._%-]+@[A-Za-z0-9.-]+[.][A-Za-z]+$'),
	password_hash VARCHAR(200) NOT NULL,
	role VARCHAR(30) NOT NULL CHECK (role IN ('developer', 'designer', 'project-manager', 'tester')),
	tasks_count INTEGER NOT NULL DEFAULT 0 CHECK (tasks_count >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

func (u *UserPostgresRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	row := u.pool.QueryRow(ctx, "SELECT id, name, email, password_hash, role, tasks_count, created_at FROM users WHERE id = $1", id)
	user := domain.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.TasksCount, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := u.pool.QueryRow(ctx, "SELECT id, name, email, password_hash, role, tasks_count, created_at FROM users WHERE email = $1", email)
	user := domain.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.TasksCount, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgresRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	rows, err := u.pool.Query(ctx, "SELECT id, name, email, password_hash, role, tasks_count, created_at FROM users ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]domain.User, 0)
	for rows.Next() {
		user := domain.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.TasksCount, &user.CreatedAt); err != nil {
			return nil, err
		}
		ret = append(ret, user)
	}
	return ret, rows.Err()
}

func (u *UserPostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := u.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func (u *UserPostgresRepository) Insert(ctx context.Context, user *domain.User) error {
	row := u.pool.QueryRow(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		user.Name, user.Email, user.PasswordHash, user.Role)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		return err
	}
	return nil
}

func (u *UserPostgresRepository) Update(ctx context.Context, user *domain.User) error {
	cmd, err := u.pool.Exec(ctx,
		"UPDATE users SET name = $1, role = $2, password_hash = $3 WHERE id = $4",
		user.Name, user.Role, user.PasswordHash, user.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("RowsAffected() = %d", cmd.RowsAffected())
	}
	return nil
}

func NewUserPostgresRepository(pool *pgxpool.Pool) *UserPostgresRepository {
	return &UserPostgresRepository{
		pool: pool,
	}
}
