package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/persistence"
)

// maxTokensPerHour caps login token issuance per principal.
const maxTokensPerHour = 3

// LoginInput is a validated magic-link request.
type LoginInput struct {
	Type        string
	Email       string
	URLTemplate string
}

// ConfirmResult carries the minted session token.
type ConfirmResult struct {
	Token      string
	ValidUntil time.Time
}

// Service defines the magic-link login operations.
type Service interface {
	Login(ctx context.Context, input LoginInput) error
	Confirm(ctx context.Context, tokenValue string) (ConfirmResult, error)
}

type service struct {
	principals PrincipalStore
	tokens     TokenStore
	issuer     *auth.TokenIssuer
	mailer     Mailer
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// New constructs the auth Service.
func New(principals PrincipalStore, tokens TokenStore, issuer *auth.TokenIssuer, mailer Mailer, notifier Notifier, logger *zap.Logger) Service {
	if principals == nil {
		panic("principal store is required")
	}
	if tokens == nil {
		panic("token store is required")
	}
	if issuer == nil {
		panic("token issuer is required")
	}
	if mailer == nil {
		panic("mailer is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &service{
		principals: principals,
		tokens:     tokens,
		issuer:     issuer,
		mailer:     mailer,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Login issues a magic-link login token. An unknown or unapproved principal
// is NOT an error: the caller responds identically to avoid leaking account
// existence.
func (s *service) Login(ctx context.Context, input LoginInput) error {
	principal, found, err := s.lookupPrincipal(ctx, input.Type, input.Email)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !found {
		s.log(ctx).Info("principal not found or not approved, responding positively",
			zap.String("principal_type", input.Type))
		return nil
	}

	now := s.now()
	count, oldest, err := s.tokens.RecentLoginTokens(ctx, input.Type, principal.id, now.Add(-time.Hour))
	if err != nil {
		return apperrors.Internal(err)
	}
	if count >= maxTokensPerHour {
		// retryAfter is the age of the oldest recent token, kept for
		// compatibility with existing consumers.
		retryAfter := int64(now.Sub(oldest) / time.Second)
		return apperrors.TooManyRequests(retryAfter)
	}

	token, err := s.tokens.CreateLoginToken(ctx, input.Type, principal.id)
	if err != nil {
		return apperrors.Internal(err)
	}
	s.log(ctx).Info("login token created", zap.String("principal_type", input.Type))

	link := strings.ReplaceAll(input.URLTemplate, "%token%", token.Token)
	if err := s.mailer.SendLoginMail(ctx, principal.email, principal.name, link, token.ExpiryDate); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Confirm redeems a login token and mints a session JWT. Redemption is a
// single-use consume; a replayed token sees NotFound. A failing login
// notification is logged but does not unwind the confirmed login.
func (s *service) Confirm(ctx context.Context, tokenValue string) (ConfirmResult, error) {
	now := s.now()

	token, err := s.tokens.ConsumeLoginToken(ctx, tokenValue, now)
	if err != nil {
		if errors.Is(err, persistence.ErrTokenNotFound) {
			return ConfirmResult{}, apperrors.NotFound("token")
		}
		return ConfirmResult{}, apperrors.Internal(err)
	}
	s.log(ctx).Info("login token consumed", zap.String("principal_type", token.UserType))

	if err := s.resolveAndConfirm(ctx, token); err != nil {
		return ConfirmResult{}, err
	}

	jwtToken, validUntil, err := s.issuer.Issue(token.UserType, token.UserID.String(), now)
	if err != nil {
		return ConfirmResult{}, apperrors.Internal(err)
	}

	if err := s.notifier.SendLoginNotification(ctx, token.UserType, token.UserID.String()); err != nil {
		s.log(ctx).Error("sending login notification failed", zap.Error(err))
	}

	return ConfirmResult{Token: jwtToken, ValidUntil: validUntil}, nil
}

// resolveAndConfirm loads the token's principal and flips a client's
// email_confirmed flag on first login.
func (s *service) resolveAndConfirm(ctx context.Context, token persistence.LoginToken) error {
	switch token.UserType {
	case auth.TypeClient:
		client, err := s.principals.GetClient(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, persistence.ErrClientNotFound) {
				return apperrors.NotFound(auth.TypeClient)
			}
			return apperrors.Internal(err)
		}
		if !client.EmailConfirmed {
			client.EmailConfirmed = true
			if _, err := s.principals.UpdateClient(ctx, client); err != nil {
				return apperrors.Internal(err)
			}
			s.log(ctx).Info("client email confirmed on login")
		}
		return nil

	case auth.TypeUser:
		if _, err := s.principals.GetUser(ctx, token.UserID); err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return apperrors.NotFound(auth.TypeUser)
			}
			return apperrors.Internal(err)
		}
		return nil
	}
	return apperrors.NotFound(token.UserType)
}

type principalInfo struct {
	id    uuid.UUID
	name  string
	email string
}

func (s *service) lookupPrincipal(ctx context.Context, principalType, email string) (principalInfo, bool, error) {
	switch principalType {
	case auth.TypeClient:
		client, err := s.principals.FindClientByEmail(ctx, email, true)
		if err != nil {
			if errors.Is(err, persistence.ErrClientNotFound) {
				return principalInfo{}, false, nil
			}
			return principalInfo{}, false, err
		}
		return principalInfo{id: client.ID, name: client.Name, email: client.Email}, true, nil

	case auth.TypeUser:
		user, err := s.principals.FindUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, persistence.ErrUserNotFound) {
				return principalInfo{}, false, nil
			}
			return principalInfo{}, false, err
		}
		return principalInfo{id: user.ID, name: user.Name, email: user.Email}, true, nil
	}
	return principalInfo{}, false, nil
}

func (s *service) log(ctx context.Context) *zap.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return s.logger
}
