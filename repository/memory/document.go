package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v4"

	"github.com/remotecollab/api/domain"
)

type DocumentRepository struct {
	store *Store
}

func (r *DocumentRepository) denormalize(d *domain.Document) domain.Document {
	cp := *d
	if p, ok := r.store.projects[d.ProjectID]; ok {
		cp.ProjectName = p.Name
	}
	return cp
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int) (*domain.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.documents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := r.denormalize(d)
	return &cp, nil
}

func (r *DocumentRepository) GetAll(ctx context.Context) ([]domain.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret := make([]domain.Document, 0, len(r.store.documents))
	for _, d := range r.store.documents {
		ret = append(ret, r.denormalize(d))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.documents), nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.projects[doc.ProjectID]; !ok {
		return pgx.ErrNoRows
	}
	doc.ID = r.store.id()
	doc.CreatedAt = r.store.now()
	cp := *doc
	r.store.documents[doc.ID] = &cp
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.documents[doc.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Title = doc.Title
	existing.Description = doc.Description
	existing.Type = doc.Type
	existing.URL = doc.URL
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.documents[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.documents, id)
	return nil
}
