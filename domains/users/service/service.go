package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/persistence"
)

// UserInput carries the editable fields of an admin user.
type UserInput struct {
	Name  string
	Email string
	Role  string
}

// Service defines the admin user management operations.
type Service interface {
	Create(ctx context.Context, input UserInput) (persistence.User, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.User, error)
	List(ctx context.Context) ([]persistence.User, error)
	Edit(ctx context.Context, id uuid.UUID, input UserInput) (persistence.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	users  UserStore
	logger *zap.Logger
}

// New constructs the users Service.
func New(users UserStore, logger *zap.Logger) Service {
	if users == nil {
		panic("user store is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &service{users: users, logger: logger}
}

func (s *service) Create(ctx context.Context, input UserInput) (persistence.User, error) {
	user, err := s.users.CreateUser(ctx, persistence.CreateUserParams{
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
	})
	if err != nil {
		return persistence.User{}, translateUserError(err)
	}

	s.log(ctx).Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return persistence.User{}, translateUserError(err)
	}
	return user, nil
}

func (s *service) List(ctx context.Context) ([]persistence.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// Edit overwrites the user's editable fields with the validated input.
func (s *service) Edit(ctx context.Context, id uuid.UUID, input UserInput) (persistence.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return persistence.User{}, translateUserError(err)
	}

	user.Name = input.Name
	user.Email = input.Email
	user.Role = input.Role

	updated, err := s.users.UpdateUser(ctx, user)
	if err != nil {
		return persistence.User{}, translateUserError(err)
	}

	s.log(ctx).Info("user updated", zap.String("user_id", updated.ID.String()))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return translateUserError(err)
	}
	s.log(ctx).Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

func translateUserError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserNotFound):
		return apperrors.NotFound("user")
	case errors.Is(err, persistence.ErrUserConflict):
		return apperrors.ValidationMessage("user with this email already exists")
	}
	return apperrors.Internal(err)
}

func (s *service) log(ctx context.Context) *zap.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return s.logger
}
