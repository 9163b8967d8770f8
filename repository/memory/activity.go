package memory

import (
	"context"

	"github.com/remotecollab/api/domain"
)

type ActivityRepository struct {
	store *Store
}

func (r *ActivityRepository) Insert(ctx context.Context, activity *domain.Activity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	activity.ID = r.store.id()
	activity.CreatedAt = r.store.now()
	r.store.activities = append(r.store.activities, *activity)
	return nil
}

func (r *ActivityRepository) GetRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ret := make([]domain.Activity, 0, limit)
	for i := len(r.store.activities) - 1; i >= 0 && len(ret) < limit; i-- {
		ret = append(ret, r.store.activities[i])
	}
	return ret, nil
}
