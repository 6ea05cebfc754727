package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/persistence"
)

// principalStore aggregates the user and client stores behind the combined
// lookup surface the auth flow needs.
type principalStore struct {
	*persistence.UserStore
	*persistence.ClientStore
}

// principalResolver loads principal records for verified session tokens.
type principalResolver struct {
	users   *persistence.UserStore
	clients *persistence.ClientStore
}

func (r *principalResolver) ResolvePrincipal(ctx context.Context, principalType, principalID string) (auth.Principal, error) {
	id, err := uuid.Parse(principalID)
	if err != nil {
		return nil, apperrors.NotFound(principalType)
	}

	switch principalType {
	case auth.TypeUser:
		user, err := r.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return nil, apperrors.NotFound(auth.TypeUser)
			}
			return nil, apperrors.Internal(err)
		}
		return user, nil

	case auth.TypeClient:
		client, err := r.clients.GetClient(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrClientNotFound) {
				return nil, apperrors.NotFound(auth.TypeClient)
			}
			return nil, apperrors.Internal(err)
		}
		return client, nil
	}
	return nil, apperrors.NotFound(principalType)
}
