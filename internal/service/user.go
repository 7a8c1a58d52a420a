package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/user-records-service/internal/metrics"
	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"github.com/rs/zerolog"
)

// userService holds user use-case logic: validation + orchestration, no transport / query details.
type userService struct {
	repo     repository.UserRepository
	tx       repository.TxManager
	validate *validator.Validate
	log      zerolog.Logger
}

// NewUserService wires the store explicitly. A nil tx runs writes without a transaction.
func NewUserService(repo repository.UserRepository, tx repository.TxManager, logger zerolog.Logger) UserService {
	if tx == nil {
		tx = repository.NoTx{}
	}
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	return &userService{repo: repo, tx: tx, validate: newValidator(), log: l}
}

func (s *userService) GetUser(ctx context.Context, id string) (model.User, error) {
	if id == "" {
		return model.User{}, NewInvalidInputError([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	return s.repo.GetByID(ctx, id)
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (model.User, error) {
	start := time.Now()
	f := normalizeCreate(in)
	if err := s.validateCreate(f); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("user validation failed")
		return model.User{}, err
	}

	var out model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, f.Email, ""); err != nil {
			return err
		}
		t := time.Now()
		created, err := s.repo.Create(ctx, model.User{
			Name:    f.Name,
			Age:     *f.Age,
			Email:   f.Email,
			Address: f.Address,
		})
		metrics.ObserveStoreQuery("create", t, err)
		out = created
		return err
	})
	if err != nil {
		s.logWriteFailure(err, "create user failed", "")
		return model.User{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Str("user_id", out.ID).Msg("user created")
	return out, nil
}

// UpdateUser changes only the fields present in p. A changed email must not
// belong to another record; keeping one's own email is fine.
func (s *userService) UpdateUser(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	if id == "" {
		return model.User{}, NewInvalidInputError([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	p = normalizePatch(p)
	if err := s.validatePatch(p); err != nil {
		s.log.Debug().Str("user_id", id).Interface("field_errors", FieldErrors(err)).Msg("user validation failed")
		return model.User{}, err
	}
	if p.Empty() {
		return s.repo.GetByID(ctx, id)
	}

	var out model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if p.Email != nil {
			if err := s.ensureEmailFree(ctx, *p.Email, id); err != nil {
				return err
			}
		}
		t := time.Now()
		updated, err := s.repo.Update(ctx, id, p)
		metrics.ObserveStoreQuery("update", t, err)
		out = updated
		return err
	})
	if err != nil {
		s.logWriteFailure(err, "update user failed", id)
		return model.User{}, err
	}
	s.log.Info().Str("user_id", id).Msg("user updated")
	return out, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return NewInvalidInputError([]FieldError{{Field: "id", Message: "must not be empty"}})
	}
	t := time.Now()
	err := s.repo.Delete(ctx, id)
	metrics.ObserveStoreQuery("delete", t, err)
	if err != nil {
		s.logWriteFailure(err, "delete user failed", id)
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// ensureEmailFree fails with ErrAlreadyExists when email belongs to a record other than exceptID.
func (s *userService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return repository.ErrAlreadyExists
	default:
		return nil
	}
}

// logWriteFailure keeps expected client-side outcomes out of the error log.
func (s *userService) logWriteFailure(err error, msg, id string) {
	var ev *zerolog.Event
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrAlreadyExists) {
		ev = s.log.Debug()
	} else {
		ev = s.log.Error()
	}
	ev.Err(err).Str("user_id", id).Msg(msg)
}
