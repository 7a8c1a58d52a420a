// Package memory keeps user records in process. It backs tests and local runs
// without a database and follows the same contract as the real stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
)

// UserRepository stores records in insertion order, which is its native order.
type UserRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID: make(map[string]model.User),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *UserRepository) Find(ctx context.Context, f repository.UserFilter, w repository.Window) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.User, 0, w.Limit)
	var seen int64
	for _, id := range r.order {
		u := r.byID[id]
		if !f.Matches(u) {
			continue
		}
		seen++
		if seen <= w.Skip {
			continue
		}
		if len(out) >= w.Limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) Count(ctx context.Context, f repository.UserFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, id := range r.order {
		if f.Matches(r.byID[id]) {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return model.User{}, repository.ErrAlreadyExists
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = u
	r.order = append(r.order, u.ID)
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.byID[id]; u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *UserRepository) Update(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if p.Email != nil && r.emailTaken(*p.Email, id) {
		return model.User{}, repository.ErrAlreadyExists
	}
	u = p.Apply(u)
	u.UpdatedAt = r.now()
	r.byID[id] = u
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ping always succeeds; there is nothing to reach.
func (r *UserRepository) Ping(ctx context.Context) error { return ctx.Err() }

// emailTaken mirrors the unique index of the real stores. Caller holds the lock.
func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.Pinger         = (*UserRepository)(nil)
)
