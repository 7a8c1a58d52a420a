package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/user-records-service/internal/model"
)

// emailPattern accepts something@something.something with no whitespace.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// userFields carries the validation rules of a user record. Age is capped at
// the range of a 32-bit integer column.
type userFields struct {
	Name    string `json:"name" validate:"required,min=2"`
	Age     *int   `json:"age" validate:"required,gte=0,lte=2147483647"`
	Email   string `json:"email" validate:"required,basic_email"`
	Address string `json:"address"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldMessage renders one validator failure the way clients see it.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("length must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "basic_email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// toInvalidInput converts validator output into the aggregated service error.
func toInvalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ferrs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		ferrs = append(ferrs, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return NewInvalidInputError(ferrs)
}

// normalizeCreate trims the text fields the way they are stored.
func normalizeCreate(in CreateUserInput) userFields {
	return userFields{
		Name:    strings.TrimSpace(in.Name),
		Age:     in.Age,
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
	}
}

// normalizePatch trims supplied text fields and leaves absent ones nil.
func normalizePatch(p model.UserPatch) model.UserPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	return model.UserPatch{
		Name:    trim(p.Name),
		Age:     p.Age,
		Email:   trim(p.Email),
		Address: trim(p.Address),
	}
}

func (s *userService) validateCreate(f userFields) error {
	if err := s.validate.Struct(f); err != nil {
		return toInvalidInput(err)
	}
	return nil
}

// validatePatch checks only the supplied fields against the same rules as create.
func (s *userService) validatePatch(p model.UserPatch) error {
	var ferrs []FieldError
	check := func(field string, value any, tag string) {
		err := s.validate.Var(value, tag)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				ferrs = append(ferrs, FieldError{Field: field, Message: fieldMessage(fe)})
			}
		}
	}
	if p.Name != nil {
		check("name", *p.Name, "required,min=2")
	}
	if p.Age != nil {
		check("age", *p.Age, "gte=0,lte=2147483647")
	}
	if p.Email != nil {
		check("email", *p.Email, "required,basic_email")
	}
	return NewInvalidInputError(ferrs)
}
