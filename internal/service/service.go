// Package service holds business logic orchestration across repositories and handlers.
// It covers use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/user-records-service/internal/model"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInputError builds an aggregated validation error, or nil when fe is empty.
func NewInvalidInputError(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// ListQuery is the raw, untrusted listing input as it arrives on the query string.
// Empty strings mean "absent".
type ListQuery struct {
	Page   string
	Limit  string
	Search string
}

// CreateUserInput is the body of a create request. Age is a pointer so that a
// missing age is reported instead of silently becoming 0.
type CreateUserInput struct {
	Name    string
	Age     *int
	Email   string
	Address string
}

// UserService defines user-oriented use cases.
type UserService interface {
	ListUsers(ctx context.Context, q ListQuery) (model.UserPage, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (model.User, error)
	UpdateUser(ctx context.Context, id string, p model.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}
