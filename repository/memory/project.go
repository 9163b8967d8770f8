package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
)

type ProjectRepository struct {
	store *Store
}

// denormalize copies the project and fills its owner name and team list.
// Caller holds the lock.
func (r *ProjectRepository) denormalize(p *domain.Project) domain.Project {
	cp := *p
	if owner, ok := r.store.users[p.OwnerID]; ok {
		cp.OwnerName = owner.Name
	}
	cp.Team = make([]int, 0)
	for uid := range r.store.members[p.ID] {
		cp.Team = append(cp.Team, uid)
	}
	sort.Ints(cp.Team)
	return cp
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*domain.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := r.denormalize(p)
	return &cp, nil
}

func (r *ProjectRepository) GetAll(ctx context.Context) ([]domain.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret := make([]domain.Project, 0, len(r.store.projects))
	for _, p := range r.store.projects {
		ret = append(ret, r.denormalize(p))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.projects), nil
}

func (r *ProjectRepository) Insert(ctx context.Context, project *domain.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	project.ID = r.store.id()
	project.CreatedAt = r.store.now()
	cp := *project
	r.store.projects[project.ID] = &cp
	members := map[int]bool{project.OwnerID: true}
	for _, uid := range project.Team {
		members[uid] = true
	}
	r.store.members[project.ID] = members
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.projects[project.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name = project.Name
	existing.Description = project.Description
	existing.StartDate = project.StartDate
	existing.EndDate = project.EndDate
	existing.Status = project.Status
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.projects, id)
	delete(r.store.members, id)
	assignees := map[int]bool{}
	for tid, t := range r.store.tasks {
		if t.ProjectID == id {
			assignees[t.AssigneeID] = true
			delete(r.store.tasks, tid)
		}
	}
	for did, d := range r.store.documents {
		if d.ProjectID == id {
			delete(r.store.documents, did)
		}
	}
	// The swept tasks counted against their assignees.
	for uid := range assignees {
		r.store.recountTasks(id, uid)
	}
	return nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.projects[projectID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.members[projectID][userID] = true
	return nil
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	members, ok := r.store.members[projectID]
	if !ok || !members[userID] {
		return pgx.ErrNoRows
	}
	delete(members, userID)
	return nil
}
