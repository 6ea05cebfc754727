package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/persistence"
)

// PrincipalStore resolves and updates login principals.
type PrincipalStore interface {
	FindUserByEmail(ctx context.Context, email string) (persistence.User, error)
	FindClientByEmail(ctx context.Context, email string, approvedOnly bool) (persistence.Client, error)
	GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error)
	GetClient(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
}

// TokenStore manages single-use login tokens.
type TokenStore interface {
	CreateLoginToken(ctx context.Context, userType string, userID uuid.UUID) (persistence.LoginToken, error)
	RecentLoginTokens(ctx context.Context, userType string, userID uuid.UUID, since time.Time) (count int, oldest time.Time, err error)
	ConsumeLoginToken(ctx context.Context, value string, now time.Time) (persistence.LoginToken, error)
}

// Mailer sends the magic-link login mail.
type Mailer interface {
	SendLoginMail(ctx context.Context, email, name, link string, expiry time.Time) error
}

// Notifier announces successful logins to operators.
type Notifier interface {
	SendLoginNotification(ctx context.Context, userType, userID string) error
}
