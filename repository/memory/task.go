package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
)

type TaskRepository struct {
	store *Store
}

func (r *TaskRepository) denormalize(t *domain.Task) domain.Task {
	cp := *t
	if p, ok := r.store.projects[t.ProjectID]; ok {
		cp.ProjectName = p.Name
	}
	if u, ok := r.store.users[t.AssigneeID]; ok {
		cp.AssigneeName = u.Name
	}
	return cp
}

func (r *TaskRepository) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := r.denormalize(t)
	return &cp, nil
}

func (r *TaskRepository) GetAll(ctx context.Context, sortBy string) ([]domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret := make([]domain.Task, 0, len(r.store.tasks))
	for _, t := range r.store.tasks {
		ret = append(ret, r.denormalize(t))
	}
	switch sortBy {
	case domain.TaskSortLatest:
		sort.Slice(ret, func(i, j int) bool { return ret[i].ID > ret[j].ID })
	case domain.TaskSortDeadline:
		sort.Slice(ret, func(i, j int) bool { return ret[i].DueDate.Before(ret[j].DueDate) })
	default:
		sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	}
	return ret, nil
}

func (r *TaskRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.tasks), nil
}

// Insert creates the task and updates both counters under the same lock, the
// in-memory equivalent of the single postgres transaction.
func (r *TaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.projects[task.ProjectID]; !ok {
		return pgx.ErrNoRows
	}
	if _, ok := r.store.users[task.AssigneeID]; !ok {
		return pgx.ErrNoRows
	}
	task.ID = r.store.id()
	task.CreatedAt = r.store.now()
	cp := *task
	r.store.tasks[task.ID] = &cp
	r.store.recountTasks(task.ProjectID, task.AssigneeID)
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.tasks[task.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	prevAssignee := existing.AssigneeID
	existing.Title = task.Title
	existing.Description = task.Description
	existing.AssigneeID = task.AssigneeID
	existing.Status = task.Status
	existing.Priority = task.Priority
	existing.DueDate = task.DueDate
	if prevAssignee != task.AssigneeID {
		r.store.recountTasks(existing.ProjectID, prevAssignee)
		r.store.recountTasks(existing.ProjectID, task.AssigneeID)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.tasks, id)
	r.store.recountTasks(existing.ProjectID, existing.AssigneeID)
	return nil
}
