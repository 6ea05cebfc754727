package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/persistence"
)

type mockUserStore struct {
	createUserFn func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	getUserFn    func(ctx context.Context, id uuid.UUID) (persistence.User, error)
	listUsersFn  func(ctx context.Context) ([]persistence.User, error)
	updateUserFn func(ctx context.Context, user persistence.User) (persistence.User, error)
	deleteUserFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserStore) CreateUser(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	return m.createUserFn(ctx, params)
}

func (m *mockUserStore) GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	return m.getUserFn(ctx, id)
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return m.listUsersFn(ctx)
}

func (m *mockUserStore) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	return m.updateUserFn(ctx, user)
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return m.deleteUserFn(ctx, id)
}

func TestCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	users := &mockUserStore{
		createUserFn: func(context.Context, persistence.CreateUserParams) (persistence.User, error) {
			return persistence.User{}, persistence.ErrUserConflict
		},
	}

	svc := New(users, zap.NewNop())

	_, err := svc.Create(context.Background(), UserInput{Name: "Admin", Email: "admin@deskradar.com", Role: "admin"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "ValidationError", appErr.Name)
	require.Equal(t, "user with this email already exists", appErr.Message)
}

func TestEditOverwritesFields(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	users := &mockUserStore{
		getUserFn: func(_ context.Context, id uuid.UUID) (persistence.User, error) {
			require.Equal(t, userID, id)
			return persistence.User{ID: userID, Name: "Old", Email: "old@deskradar.com", Role: "admin"}, nil
		},
		updateUserFn: func(_ context.Context, user persistence.User) (persistence.User, error) {
			return user, nil
		},
	}

	svc := New(users, zap.NewNop())

	updated, err := svc.Edit(context.Background(), userID, UserInput{Name: "New", Email: "new@deskradar.com", Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Name)
	require.Equal(t, "new@deskradar.com", updated.Email)
}

func TestEditUnknownUser(t *testing.T) {
	t.Parallel()

	users := &mockUserStore{
		getUserFn: func(context.Context, uuid.UUID) (persistence.User, error) {
			return persistence.User{}, persistence.ErrUserNotFound
		},
	}

	svc := New(users, zap.NewNop())

	_, err := svc.Edit(context.Background(), uuid.New(), UserInput{Name: "X", Email: "x@deskradar.com", Role: "admin"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "NotFoundError", appErr.Name)
	require.Equal(t, "user not found", appErr.Message)
}

func TestDeleteUnknownUser(t *testing.T) {
	t.Parallel()

	users := &mockUserStore{
		deleteUserFn: func(context.Context, uuid.UUID) error {
			return persistence.ErrUserNotFound
		},
	}

	svc := New(users, zap.NewNop())

	err := svc.Delete(context.Background(), uuid.New())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "NotFoundError", appErr.Name)
}
