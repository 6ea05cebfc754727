package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/persistence"
)

// UserStore is the persistence surface for admin user management.
type UserStore interface {
	CreateUser(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
