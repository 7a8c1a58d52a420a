package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/maxviazov/user-records-service/internal/metrics"
	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 50
)

// PageRequest is a listing request after normalization. Every field is safe to use as-is.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// NormalizeListQuery applies the listing defaults and bounds. It never fails:
// unparseable numbers fall back to their defaults.
func NormalizeListQuery(q ListQuery) PageRequest {
	page, ok := parseLeadingInt(q.Page)
	if !ok {
		page = DefaultPage
	}
	if page < 1 {
		page = 1
	}

	limit, ok := parseLeadingInt(q.Limit)
	if !ok {
		limit = DefaultLimit
	}
	limit = min(max(limit, 1), MaxLimit)

	return PageRequest{Page: page, Limit: limit, Search: q.Search}
}

// parseLeadingInt reads an optionally signed run of leading digits after
// trimming whitespace, so "12abc" and "3.7" give 12 and 3. Input without
// leading digits is not a number; digits beyond the int range saturate at
// ±MaxInt and are left to the caller's bounds.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:j], 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}

// Filter returns the store predicate for the request.
func (p PageRequest) Filter() repository.UserFilter {
	return repository.UserFilter{Search: p.Search}
}

// Window computes skip = (page-1)*limit. Page has no upper bound, so the
// product saturates at MaxInt64 instead of wrapping negative.
func (p PageRequest) Window() repository.Window {
	limit := int64(p.Limit)
	pages := int64(p.Page - 1)
	if limit > 0 && pages > math.MaxInt64/limit {
		return repository.Window{Skip: math.MaxInt64, Limit: p.Limit}
	}
	return repository.Window{Skip: pages * limit, Limit: p.Limit}
}

// TotalPages is ceil(total/limit), and 0 for an empty result.
func TotalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return total/l + min(total%l, 1)
}

// ListUsers resolves one page. The bounded fetch and the total count run
// concurrently; the first failure cancels the other and no partial page is returned.
func (s *userService) ListUsers(ctx context.Context, q ListQuery) (model.UserPage, error) {
	start := time.Now()
	req := NormalizeListQuery(q)
	filter := req.Filter()
	window := req.Window()

	var (
		users []model.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		var err error
		users, err = s.repo.Find(gctx, filter, window)
		metrics.ObserveStoreQuery("find", t, err)
		return err
	})
	g.Go(func() error {
		t := time.Now()
		var err error
		total, err = s.repo.Count(gctx, filter)
		metrics.ObserveStoreQuery("count", t, err)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).
			Int("page", req.Page).
			Int("limit", req.Limit).
			Str("search", req.Search).
			Msg("list users failed")
		return model.UserPage{}, err
	}

	if users == nil {
		users = []model.User{}
	}
	s.log.Debug().
		Int("page", req.Page).
		Int("limit", req.Limit).
		Int64("total", total).
		Int("returned", len(users)).
		Dur("took", time.Since(start)).
		Msg("users listed")

	return model.UserPage{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: TotalPages(total, req.Limit),
		Data:       users,
	}, nil
}
