package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/maxviazov/user-records-service/internal/repository/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_MemoryContract(t *testing.T) {
	contract.RunUserRepositoryContract(t, func(t *testing.T) (repository.UserRepository, func()) {
		return NewUserRepository(), func() {}
	})
}

func TestPinger_MemoryContract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		return NewUserRepository(), func() {}
	})
}

func TestUserRepository_FindKeepsInsertionOrder(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	var ids []string
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"} {
		u, err := repo.Create(ctx, model.User{Name: "Name", Email: email})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	require.NoError(t, repo.Delete(ctx, ids[1]))

	got, err := repo.Find(ctx, repository.UserFilter{}, repository.Window{Skip: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[3], got[1].ID)
}

func TestUserRepository_CanceledContext(t *testing.T) {
	repo := NewUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Find(ctx, repository.UserFilter{}, repository.Window{Limit: 5})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.Count(ctx, repository.UserFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserRepository_ConcurrentCreatesKeepEmailUnique(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, model.User{Name: "Racer", Email: "race@example.com"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	}
	assert.Equal(t, 1, ok)
}
