package pg

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/remotecollab/api/domain"
)

type ProjectPostgresRepository struct {
	pool *pgxpool.Pool
}

func CreateProjectTable() string {
	return `CREATE TABLE IF NOT EXISTS projects
(
	id SERIAL NOT NULL PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	start_date DATE NOT NULL DEFAULT '0001-01-01',
	end_date DATE NOT NULL DEFAULT '0001-01-01'
		CHECK (start_date = '0001-01-01' OR end_date = '0001-01-01' OR end_date >= start_date),
	status VARCHAR(30) NOT NULL DEFAULT 'Not Started' CHECK (status IN ('Not Started', 'In Progress', 'Completed', 'On Hold')),
	tasks_count INTEGER NOT NULL DEFAULT 0 CHECK (tasks_count >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

func CreateProjectMemberTable() string {
	return `CREATE TABLE IF NOT EXISTS project_members
(
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (project_id, user_id)
);`
}

const projectSelect = `SELECT p.id, p.name, p.description, p.owner_id, u.name, p.start_date, p.end_date, p.status, p.tasks_count, p.created_at,
	COALESCE(ARRAY_AGG(pm.user_id) FILTER (WHERE pm.user_id IS NOT NULL), '{}')
FROM projects p
JOIN users u ON u.id = p.owner_id
LEFT JOIN project_members pm ON pm.project_id = p.id`

func scanProject(row pgx.Row) (*domain.Project, error) {
	project := domain.Project{}
	var team []int32
	if err := row.Scan(&project.ID, &project.Name, &project.Description, &project.OwnerID, &project.OwnerName,
		&project.StartDate, &project.EndDate, &project.Status, &project.TasksCount, &project.CreatedAt, &team); err != nil {
		return nil, err
	}
	project.Team = make([]int, 0, len(team))
	for _, id := range team {
		project.Team = append(project.Team, int(id))
	}
	return &project, nil
}

func (pr *ProjectPostgresRepository) GetByID(ctx context.Context, id int) (*domain.Project, error) {
	row := pr.pool.QueryRow(ctx, projectSelect+" WHERE p.id = $1 GROUP BY p.id, u.name", id)
	return scanProject(row)
}

func (pr *ProjectPostgresRepository) GetAll(ctx context.Context) ([]domain.Project, error) {
	rows, err := pr.pool.Query(ctx, projectSelect+" GROUP BY p.id, u.name ORDER BY p.id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *project)
	}
	return ret, rows.Err()
}

func (pr *ProjectPostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := pr.pool.QueryRow(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

func (pr *ProjectPostgresRepository) Insert(ctx context.Context, project *domain.Project) error {
	tx, err := pr.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	row := tx.QueryRow(ctx,
		`INSERT INTO projects (name, description, owner_id, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		project.Name, project.Description, project.OwnerID, project.StartDate, project.EndDate, project.Status)
	if err := row.Scan(&project.ID, &project.CreatedAt); err != nil {
		return err
	}
	// The owner is always on the team.
	if _, err := tx.Exec(ctx,
		"INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		project.ID, project.OwnerID); err != nil {
		return err
	}
	for _, uid := range project.Team {
		if uid == project.OwnerID {
			continue
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			project.ID, uid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (pr *ProjectPostgresRepository) Update(ctx context.Context, project *domain.Project) error {
	cmd, err := pr.pool.Exec(ctx,
		"UPDATE projects SET name = $1, description = $2, start_date = $3, end_date = $4, status = $5 WHERE id = $6",
		project.Name, project.Description, project.StartDate, project.EndDate, project.Status, project.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the project and, since its tasks cascade away with it,
// recounts the assignee counters of those tasks in the same transaction.
func (pr *ProjectPostgresRepository) Delete(ctx context.Context, id int) error {
	tx, err := pr.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, "SELECT DISTINCT assignee_id FROM tasks WHERE project_id = $1", id)
	if err != nil {
		return err
	}
	assignees := make([]int, 0)
	for rows.Next() {
		var uid int
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return err
		}
		assignees = append(assignees, uid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	for _, uid := range assignees {
		if _, err := tx.Exec(ctx,
			"UPDATE users SET tasks_count = (SELECT COUNT(*) FROM tasks WHERE assignee_id = $1) WHERE id = $1",
			uid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (pr *ProjectPostgresRepository) AddMember(ctx context.Context, projectID, userID int) error {
	_, err := pr.pool.Exec(ctx,
		"INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		projectID, userID)
	return err
}

func (pr *ProjectPostgresRepository) RemoveMember(ctx context.Context, projectID, userID int) error {
	cmd, err := pr.pool.Exec(ctx,
		"DELETE FROM project_members WHERE project_id = $1 AND user_id = $2",
		projectID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func NewProjectPostgresRepository(pool *pgxpool.Pool) *ProjectPostgresRepository {
	return &ProjectPostgresRepository{
		pool: pool,
	}
}
