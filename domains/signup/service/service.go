package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/persistence"
)

// SignupInput is a validated account registration request.
type SignupInput struct {
	Name             string
	Email            string
	Organization     string
	Domain           string
	Country          string
	Consent          bool
	MarketingConsent bool
}

// Service defines the self-service account registration operations.
type Service interface {
	Signup(ctx context.Context, input SignupInput) error
	Confirm(ctx context.Context, tokenValue string) error
}

type service struct {
	clients     ClientStore
	tokens      TokenStore
	mailer      Mailer
	notifier    Notifier
	urlTemplate string
	logger      *zap.Logger
	now         func() time.Time
}

// New constructs the signup Service. urlTemplate carries the %token%
// placeholder for the verification link.
func New(clients ClientStore, tokens TokenStore, mailer Mailer, notifier Notifier, urlTemplate string, logger *zap.Logger) Service {
	if clients == nil {
		panic("client store is required")
	}
	if tokens == nil {
		panic("token store is required")
	}
	if mailer == nil {
		panic("mailer is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	if urlTemplate == "" {
		panic("verification url template is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &service{
		clients:     clients,
		tokens:      tokens,
		mailer:      mailer,
		notifier:    notifier,
		urlTemplate: urlTemplate,
		logger:      logger,
		now:         time.Now,
	}
}

// Signup registers a new client account with placeholder deployment state,
// issues a verification token and mails the confirmation link.
func (s *service) Signup(ctx context.Context, input SignupInput) error {
	client, err := s.clients.CreateClient(ctx, persistence.CreateClientParams{
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.ToLower(input.Email),
		Organization:     strings.TrimSpace(input.Organization),
		Country:          input.Country,
		Consent:          input.Consent,
		MarketingConsent: input.MarketingConsent,
		Domain:           input.Domain,
		TrialEndDate:     s.now(),
	})
	if err != nil {
		return translateUniqueError(err)
	}

	token, err := s.tokens.CreateVerificationToken(ctx, client.ID)
	if err != nil {
		return apperrors.Internal(err)
	}

	link := strings.ReplaceAll(s.urlTemplate, "%token%", token.Token)
	if err := s.mailer.SendVerificationMail(ctx, client.Email, client.Name, link, token.ExpiryDate); err != nil {
		return apperrors.Internal(err)
	}
	if err := s.notifier.SendClientSignupNotification(ctx, client.ID.String()); err != nil {
		return apperrors.Internal(err)
	}

	s.log(ctx).Info("client signed up")
	return nil
}

// Confirm redeems a verification token and marks the client's email address
// as confirmed. The token is consumed even when the client is gone.
func (s *service) Confirm(ctx context.Context, tokenValue string) error {
	token, err := s.tokens.ConsumeVerificationToken(ctx, tokenValue, s.now())
	if err != nil {
		if errors.Is(err, persistence.ErrTokenNotFound) {
			return apperrors.NotFound("token")
		}
		return apperrors.Internal(err)
	}
	s.log(ctx).Info("verification token consumed")

	client, err := s.clients.GetClient(ctx, token.ClientID)
	if err != nil {
		if errors.Is(err, persistence.ErrClientNotFound) {
			return apperrors.NotFound("client")
		}
		return apperrors.Internal(err)
	}

	client.EmailConfirmed = true
	client, err = s.clients.UpdateClient(ctx, client)
	if err != nil {
		return apperrors.Internal(err)
	}
	s.log(ctx).Info("client email confirmed")

	if err := s.mailer.SendSignupReceivedMail(ctx, client.Email, client.Name, client.Deployment.Domain); err != nil {
		return apperrors.Internal(err)
	}
	if err := s.notifier.SendClientEmailConfirmedNotification(ctx, client.ID.String()); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// translateUniqueError maps domain and email collisions to the client facing
// validation messages. A domain collision takes precedence.
func translateUniqueError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrDomainTaken):
		return apperrors.ValidationMessage("domain is already taken")
	case errors.Is(err, persistence.ErrEmailTaken):
		return apperrors.ValidationMessage("email is already registered")
	}
	return apperrors.Internal(err)
}

func (s *service) log(ctx context.Context) *zap.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return s.logger
}
