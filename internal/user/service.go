package user

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so validation errors match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in CreateInput) (User, error) {
	if err := validateCreateInput(in); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, User{
		ClerkID:   in.ClerkID,
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Photo:     in.Photo,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Sync is the fallback create for signed-in sessions whose user.created webhook
// was missed. A duplicate key is the expected steady state and is absorbed by
// returning the existing record with created=false.
func (s *service) Sync(ctx context.Context, in CreateInput) (User, bool, error) {
	created, err := s.Create(ctx, withSessionDefaults(in))
	if err == nil {
		return created, true, nil
	}
	if !IsDuplicateKey(err) {
		return User{}, false, err
	}

	existing, err := s.repo.GetByClerkID(ctx, in.ClerkID)
	if err != nil {
		return User{}, false, err
	}
	return existing, false, nil
}

func (s *service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, clerkID string, upd UpdateInput) (User, error) {
	if clerkID == "" {
		return User{}, ErrNotFound
	}
	return s.repo.Update(ctx, clerkID, upd)
}

func (s *service) Delete(ctx context.Context, clerkID string) (User, error) {
	if clerkID == "" {
		return User{}, ErrNotFound
	}
	return s.repo.Delete(ctx, clerkID)
}

func validateCreateInput(in CreateInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: fieldErrs[0].Field()}
	}
	return err
}

// withSessionDefaults applies the fallbacks the web client uses when a session
// profile is incomplete: username falls back to the first name, and names fall
// back to placeholders.
func withSessionDefaults(in CreateInput) CreateInput {
	if in.Username == "" {
		in.Username = in.FirstName
	}
	if in.Username == "" {
		in.Username = "user"
	}
	if in.FirstName == "" {
		in.FirstName = "User"
	}
	if in.LastName == "" {
		in.LastName = "User"
	}
	return in
}
