package repository

import (
	"context"

	"github.com/maxviazov/user-records-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// Stores without multi-statement transactions run fn directly (see NoTx).
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// UserRepository declares persistence operations for user records.
// Implementations return domain errors from errors.go rather than driver codes.
type UserRepository interface {
	// Find returns the records matching f inside window w, in store-native order.
	Find(ctx context.Context, f UserFilter, w Window) ([]model.User, error)
	// Count returns how many records match f, ignoring any window.
	Count(ctx context.Context, f UserFilter) (int64, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// Update writes the patch and returns the stored record after the change.
	Update(ctx context.Context, id string, p model.UserPatch) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// NoTx is a TxManager for stores where each write is already atomic on its own.
type NoTx struct{}

func (NoTx) WithinTx(ctx context.Context, fn TxFunc) error { return fn(ctx) }

var _ TxManager = NoTx{}
