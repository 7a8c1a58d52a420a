// Package contract holds behavioral test suites every user store must pass.
// Each backend wires them to its own factory in a _test.go file.
package contract

import (
	"context"
	"fmt"
	"testing"

	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UserFactory returns an empty store and a cleanup func.
type UserFactory func(t *testing.T) (repository.UserRepository, func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func seedUsers(t *testing.T, repo repository.UserRepository, n int) []model.User {
	t.Helper()
	ctx := context.Background()
	out := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		u, err := repo.Create(ctx, model.User{
			Name:  fmt.Sprintf("User %02d", i),
			Age:   20 + i,
			Email: fmt.Sprintf("user%02d@example.com", i),
		})
		require.NoError(t, err, "seed %d", i)
		out = append(out, u)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func RunUserRepositoryContract(t *testing.T, makeRepo UserFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		created, err := repo.Create(ctx, model.User{Name: "Ada", Age: 36, Email: "ada@example.com", Address: "London"})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, 36, got.Age)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, "London", got.Address)

		byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("create_duplicate_email", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()

		_, err := repo.Create(ctx, model.User{Name: "First", Age: 1, Email: "dup@example.com"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, model.User{Name: "Second", Age: 2, Email: "dup@example.com"})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("find_pages_cover_all_without_overlap", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seeded := seedUsers(t, repo, 12)

		seen := map[string]bool{}
		for _, tc := range []struct {
			skip int64
			want int
		}{{0, 5}, {5, 5}, {10, 2}} {
			page, err := repo.Find(ctx, repository.UserFilter{}, repository.Window{Skip: tc.skip, Limit: 5})
			require.NoError(t, err)
			require.Len(t, page, tc.want, "skip=%d", tc.skip)
			for _, u := range page {
				assert.False(t, seen[u.ID], "record %s returned twice", u.ID)
				seen[u.ID] = true
			}
		}
		for _, u := range seeded {
			assert.True(t, seen[u.ID], "record %s never returned", u.ID)
		}

		total, err := repo.Count(ctx, repository.UserFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 12, total)
	})

	t.Run("find_past_the_end_is_empty", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedUsers(t, repo, 3)

		page, err := repo.Find(context.Background(), repository.UserFilter{}, repository.Window{Skip: 4990, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("search_matches_any_field_case_insensitive", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seedUsers(t, repo, 4)
		_, err := repo.Create(ctx, model.User{Name: "John Smith", Age: 40, Email: "john@example.com"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, model.User{Name: "Jane Doe", Age: 41, Email: "jane@smithery.io"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, model.User{Name: "Bob", Age: 42, Email: "bob@example.com", Address: "12 SMITH street"})
		require.NoError(t, err)
		// matches in both name and email, must be counted once
		_, err = repo.Create(ctx, model.User{Name: "Will Smith", Age: 43, Email: "will.smith@example.com"})
		require.NoError(t, err)

		f := repository.UserFilter{Search: "sMiTh"}
		total, err := repo.Count(ctx, f)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)

		page, err := repo.Find(ctx, f, repository.Window{Limit: 50})
		require.NoError(t, err)
		assert.Len(t, page, 4)
		ids := map[string]bool{}
		for _, u := range page {
			assert.False(t, ids[u.ID])
			ids[u.ID] = true
		}
	})

	t.Run("search_is_literal", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_, err := repo.Create(ctx, model.User{Name: "abc", Age: 1, Email: "abc@example.com"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, model.User{Name: "a.c 100%", Age: 2, Email: "dot@example.com"})
		require.NoError(t, err)

		for search, want := range map[string]int64{"a.c": 1, "%": 1, "_": 0, ".*": 0, "abc": 1} {
			total, err := repo.Count(ctx, repository.UserFilter{Search: search})
			require.NoError(t, err)
			assert.Equal(t, want, total, "search %q", search)
		}
	})

	t.Run("update_partial", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.User{Name: "Grace", Age: 30, Email: "grace@example.com", Address: "Arlington"})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, model.UserPatch{Age: ptr(31)})
		require.NoError(t, err)
		assert.Equal(t, 31, updated.Age)
		assert.Equal(t, "Grace", updated.Name)
		assert.Equal(t, "grace@example.com", updated.Email)
		assert.Equal(t, "Arlington", updated.Address)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Age, got.Age)
	})

	t.Run("update_duplicate_email", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seeded := seedUsers(t, repo, 2)

		_, err := repo.Update(ctx, seeded[0].ID, model.UserPatch{Email: ptr(seeded[1].Email)})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("update_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.Update(context.Background(), "does-not-exist", model.UserPatch{Name: ptr("Nobody")})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seeded := seedUsers(t, repo, 2)

		require.NoError(t, repo.Delete(ctx, seeded[0].ID))
		_, err := repo.GetByID(ctx, seeded[0].ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, seeded[0].ID), repository.ErrNotFound)

		total, err := repo.Count(ctx, repository.UserFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	p, cleanup := makePinger(t)
	t.Cleanup(cleanup)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
