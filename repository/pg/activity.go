package pg

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/remotecollab/api/domain"
)

type ActivityPostgresRepository struct {
	pool *pgxpool.Pool
}

func CreateActivityTable() string {
	return `CREATE TABLE IF NOT EXISTS activities
(
	id SERIAL NOT NULL PRIMARY KEY,
	type VARCHAR(50) NOT NULL,
	description TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

func (ar *ActivityPostgresRepository) Insert(ctx context.Context, activity *domain.Activity) error {
	row := ar.pool.QueryRow(ctx,
		"INSERT INTO activities (type, description) VALUES ($1, $2) RETURNING id, created_at",
		activity.Type, activity.Description)
	return row.Scan(&activity.ID, &activity.CreatedAt)
}

func (ar *ActivityPostgresRepository) GetRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	rows, err := ar.pool.Query(ctx,
		"SELECT id, type, description, created_at FROM activities ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]domain.Activity, 0)
	for rows.Next() {
		activity := domain.Activity{}
		if err := rows.Scan(&activity.ID, &activity.Type, &activity.Description, &activity.CreatedAt); err != nil {
			return nil, err
		}
		ret = append(ret, activity)
	}
	return ret, rows.Err()
}

func NewActivityPostgresRepository(pool *pgxpool.Pool) *ActivityPostgresRepository {
	return &ActivityPostgresRepository{
		pool: pool,
	}
}
