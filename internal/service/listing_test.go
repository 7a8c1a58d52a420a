package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/maxviazov/user-records-service/internal/repository/memory"
	"github.com/maxviazov/user-records-service/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListQuery(t *testing.T) {
	cases := []struct {
		name      string
		in        service.ListQuery
		wantPage  int
		wantLimit int
	}{
		{"absent", service.ListQuery{}, 1, 5},
		{"plain", service.ListQuery{Page: "3", Limit: "10"}, 3, 10},
		{"page zero", service.ListQuery{Page: "0"}, 1, 5},
		{"page negative", service.ListQuery{Page: "-7"}, 1, 5},
		{"page non numeric", service.ListQuery{Page: "abc"}, 1, 5},
		{"page huge", service.ListQuery{Page: "100000"}, 100000, 5},
		{"limit zero", service.ListQuery{Limit: "0"}, 1, 1},
		{"limit negative", service.ListQuery{Limit: "-3"}, 1, 1},
		{"limit above max", service.ListQuery{Limit: "500"}, 1, 50},
		{"limit at max", service.ListQuery{Limit: "50"}, 1, 50},
		{"limit non numeric", service.ListQuery{Limit: "lots"}, 1, 5},
		{"leading digits", service.ListQuery{Page: "12abc", Limit: "7px"}, 12, 7},
		{"fraction truncates", service.ListQuery{Page: "3.7", Limit: "2.9"}, 3, 2},
		{"whitespace", service.ListQuery{Page: " 4 ", Limit: "\t6"}, 4, 6},
		{"explicit plus", service.ListQuery{Page: "+2"}, 2, 5},
		{"page overflow saturates", service.ListQuery{Page: "99999999999999999999999"}, math.MaxInt, 5},
		{"negative page overflow", service.ListQuery{Page: "-99999999999999999999"}, 1, 5},
		{"limit overflow clamps high", service.ListQuery{Limit: "99999999999999999999"}, 1, 50},
		{"negative limit overflow clamps low", service.ListQuery{Limit: "-99999999999999999999"}, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := service.NormalizeListQuery(tc.in)
			assert.Equal(t, tc.wantPage, got.Page)
			assert.Equal(t, tc.wantLimit, got.Limit)
		})
	}
}

func TestNormalizeListQuery_InRangeValuesKept(t *testing.T) {
	for limit := 1; limit <= service.MaxLimit; limit++ {
		got := service.NormalizeListQuery(service.ListQuery{Page: "1", Limit: fmt.Sprint(limit)})
		require.Equal(t, limit, got.Limit)
	}
	for _, page := range []int{1, 2, 17, 4096} {
		got := service.NormalizeListQuery(service.ListQuery{Page: fmt.Sprint(page)})
		require.Equal(t, page, got.Page)
	}
}

func TestPageRequest_Window(t *testing.T) {
	for _, tc := range []struct {
		page, limit int
		skip        int64
	}{
		{1, 5, 0},
		{2, 5, 5},
		{3, 50, 100},
		{999, 5, 4990},
	} {
		w := service.PageRequest{Page: tc.page, Limit: tc.limit}.Window()
		assert.Equal(t, tc.skip, w.Skip, "page=%d limit=%d", tc.page, tc.limit)
		assert.Equal(t, tc.limit, w.Limit)
	}

	w := service.PageRequest{Page: math.MaxInt, Limit: 50}.Window()
	assert.Equal(t, int64(math.MaxInt64), w.Skip)
}

func TestTotalPages(t *testing.T) {
	for _, tc := range []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{12, 5, 3},
		{12, 50, 1},
		{100, 1, 100},
	} {
		assert.Equal(t, tc.want, service.TotalPages(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

// seedTwelve loads 12 records; two of them carry "Smith" in the name.
func seedTwelve(t *testing.T) repository.UserRepository {
	t.Helper()
	repo := memory.NewUserRepository()
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("Person %02d", i)
		if i == 4 || i == 9 {
			name = fmt.Sprintf("Smith %02d", i)
		}
		_, err := repo.Create(ctx, model.User{Name: name, Age: 20 + i, Email: fmt.Sprintf("p%02d@example.com", i)})
		require.NoError(t, err)
	}
	return repo
}

func newListService(repo repository.UserRepository) service.UserService {
	return service.NewUserService(repo, nil, zerolog.New(io.Discard))
}

func TestListUsers_Scenarios(t *testing.T) {
	svc := newListService(seedTwelve(t))
	ctx := context.Background()

	t.Run("first page", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Page: "1", Limit: "5"})
		require.NoError(t, err)
		assert.Len(t, page.Data, 5)
		assert.EqualValues(t, 12, page.Total)
		assert.EqualValues(t, 3, page.TotalPages)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 5, page.Limit)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Page: "3", Limit: "5"})
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "Person 11", page.Data[0].Name)
		assert.Equal(t, "Person 12", page.Data[1].Name)
		assert.EqualValues(t, 12, page.Total)
		assert.EqualValues(t, 3, page.TotalPages)
	})

	t.Run("page past the end", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Page: "999", Limit: "5"})
		require.NoError(t, err)
		assert.NotNil(t, page.Data)
		assert.Empty(t, page.Data)
		assert.EqualValues(t, 12, page.Total)
		assert.EqualValues(t, 3, page.TotalPages)
	})

	t.Run("limit clamped", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Limit: "500"})
		require.NoError(t, err)
		assert.Equal(t, 50, page.Limit)
		assert.Len(t, page.Data, 12)
		assert.EqualValues(t, 1, page.TotalPages)
	})

	t.Run("search", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Search: "smith"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
		assert.LessOrEqual(t, len(page.Data), 2)
		assert.EqualValues(t, 1, page.TotalPages)
	})

	t.Run("non numeric page", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Page: "abc"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Len(t, page.Data, 5)
	})

	t.Run("overflowing page and limit", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Page: "99999999999999999999", Limit: "99999999999999999999"})
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, page.Page)
		assert.Equal(t, 50, page.Limit)
		assert.NotNil(t, page.Data)
		assert.Empty(t, page.Data)
		assert.EqualValues(t, 12, page.Total)
		assert.EqualValues(t, 1, page.TotalPages)
	})

	t.Run("empty search counts everything", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Search: ""})
		require.NoError(t, err)
		assert.EqualValues(t, 12, page.Total)
	})

	t.Run("no match", func(t *testing.T) {
		page, err := svc.ListUsers(ctx, service.ListQuery{Search: "zzz"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, page.Total)
		assert.EqualValues(t, 0, page.TotalPages)
		assert.Empty(t, page.Data)
	})
}

// failingRepo fails Find or Count on demand. The healthy call blocks until its
// context is canceled so the test can observe the join aborting it.
type failingRepo struct {
	repository.UserRepository
	findErr    error
	countErr   error
	sawCancel  atomic.Bool
	lastFilter repository.UserFilter
	lastWindow repository.Window
}

func (f *failingRepo) Find(ctx context.Context, filter repository.UserFilter, w repository.Window) ([]model.User, error) {
	f.lastFilter, f.lastWindow = filter, w
	if f.findErr != nil {
		return nil, f.findErr
	}
	return nil, f.waitCanceled(ctx)
}

func (f *failingRepo) Count(ctx context.Context, _ repository.UserFilter) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return 0, f.waitCanceled(ctx)
}

func (f *failingRepo) waitCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		f.sawCancel.Store(true)
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("sibling was never canceled")
	}
}

func TestListUsers_FindFailureCancelsCount(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &failingRepo{findErr: boom}
	svc := newListService(repo)

	page, err := svc.ListUsers(context.Background(), service.ListQuery{Page: "2", Limit: "10", Search: "x"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, model.UserPage{}, page)
	assert.True(t, repo.sawCancel.Load())
	assert.Equal(t, repository.Window{Skip: 10, Limit: 10}, repo.lastWindow)
	assert.Equal(t, "x", repo.lastFilter.Search)
}

func TestListUsers_CountFailureCancelsFind(t *testing.T) {
	boom := errors.New("count timed out")
	repo := &failingRepo{countErr: boom}
	svc := newListService(repo)

	_, err := svc.ListUsers(context.Background(), service.ListQuery{})
	require.ErrorIs(t, err, boom)
	assert.True(t, repo.sawCancel.Load())
}
