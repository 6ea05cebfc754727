package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/persistence"
)

// ClientStore is the persistence surface the signup flow needs.
type ClientStore interface {
	CreateClient(ctx context.Context, params persistence.CreateClientParams) (persistence.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
}

// TokenStore manages the email verification tokens.
type TokenStore interface {
	CreateVerificationToken(ctx context.Context, clientID uuid.UUID) (persistence.VerificationToken, error)
	ConsumeVerificationToken(ctx context.Context, value string, now time.Time) (persistence.VerificationToken, error)
}

// Mailer sends the signup mails.
type Mailer interface {
	SendVerificationMail(ctx context.Context, email, name, link string, expiry time.Time) error
	SendSignupReceivedMail(ctx context.Context, email, name, account string) error
}

// Notifier reports signup events to the operators.
type Notifier interface {
	SendClientSignupNotification(ctx context.Context, clientID string) error
	SendClientEmailConfirmedNotification(ctx context.Context, clientID string) error
}
