package pg

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/remotecollab/api/domain"
)

type TaskPostgresRepository struct {
	pool *pgxpool.Pool
}

func CreateTaskTable() string {
	return `CREATE TABLE IF NOT EXISTS tasks
(
	id SERIAL NOT NULL PRIMARY KEY,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	assignee_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status VARCHAR(30) NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'review', 'completed')),
	priority VARCHAR(10) NOT NULL DEFAULT 'Medium' CHECK (priority IN ('High', 'Medium', 'Low')),
	due_date DATE NOT NULL DEFAULT '0001-01-01',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
}

const taskSelect = `SELECT t.id, t.title, t.description, t.project_id, p.name, t.assignee_id, u.name, t.status, t.priority, t.due_date, t.created_at
FROM tasks t
JOIN projects p ON p.id = t.project_id
JOIN users u ON u.id = t.assignee_id`

func scanTask(row pgx.Row) (*domain.Task, error) {
	task := domain.Task{}
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &task.ProjectID, &task.ProjectName,
		&task.AssigneeID, &task.AssigneeName, &task.Status, &task.Priority, &task.DueDate, &task.CreatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tr *TaskPostgresRepository) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	row := tr.pool.QueryRow(ctx, taskSelect+" WHERE t.id = $1", id)
	return scanTask(row)
}

func (tr *TaskPostgresRepository) GetAll(ctx context.Context, sort string) ([]domain.Task, error) {
	order := "t.id ASC"
	switch sort {
	case domain.TaskSortLatest:
		order = "t.created_at DESC"
	case domain.TaskSortDeadline:
		order = "t.due_date ASC"
	}
	rows, err := tr.pool.Query(ctx, taskSelect+" ORDER BY "+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *task)
	}
	return ret, rows.Err()
}

func (tr *TaskPostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := tr.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
	return count, err
}

// Insert creates the task and keeps the project and assignee counters in the
// same transaction, so concurrent creates never lose an increment.
func (tr *TaskPostgresRepository) Insert(ctx context.Context, task *domain.Task) error {
	tx, err := tr.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	row := tx.QueryRow(ctx,
		`INSERT INTO tasks (title, description, project_id, assignee_id, status, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		task.Title, task.Description, task.ProjectID, task.AssigneeID, task.Status, task.Priority, task.DueDate)
	if err := row.Scan(&task.ID, &task.CreatedAt); err != nil {
		return err
	}
	if err := tr.syncCounters(ctx, tx, task.ProjectID, task.AssigneeID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (tr *TaskPostgresRepository) Update(ctx context.Context, task *domain.Task) error {
	tx, err := tr.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	var prevAssignee int
	if err := tx.QueryRow(ctx, "SELECT assignee_id FROM tasks WHERE id = $1", task.ID).Scan(&prevAssignee); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		"UPDATE tasks SET title = $1, description = $2, assignee_id = $3, status = $4, priority = $5, due_date = $6 WHERE id = $7",
		task.Title, task.Description, task.AssigneeID, task.Status, task.Priority, task.DueDate, task.ID)
	if err != nil {
		return err
	}
	if prevAssignee != task.AssigneeID {
		if err := tr.syncCounters(ctx, tx, task.ProjectID, prevAssignee); err != nil {
			return err
		}
		if err := tr.syncCounters(ctx, tx, task.ProjectID, task.AssigneeID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (tr *TaskPostgresRepository) Delete(ctx context.Context, id int) error {
	tx, err := tr.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	var projectID, assigneeID int
	if err := tx.QueryRow(ctx, "SELECT project_id, assignee_id FROM tasks WHERE id = $1", id).Scan(&projectID, &assigneeID); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if err := tr.syncCounters(ctx, tx, projectID, assigneeID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (tr *TaskPostgresRepository) syncCounters(ctx context.Context, tx pgx.Tx, projectID, assigneeID int) error {
	_, err := tx.Exec(ctx,
		"UPDATE projects SET tasks_count = (SELECT COUNT(*) FROM tasks WHERE project_id = $1) WHERE id = $1",
		projectID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		"UPDATE users SET tasks_count = (SELECT COUNT(*) FROM tasks WHERE assignee_id = $1) WHERE id = $1",
		assigneeID)
	return err
}

func NewTaskPostgresRepository(pool *pgxpool.Pool) *TaskPostgresRepository {
	return &TaskPostgresRepository{
		pool: pool,
	}
}
