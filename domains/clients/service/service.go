package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/persistence"
)

// DeploymentInput carries the validated deployment block of a client payload.
type DeploymentInput struct {
	Status       string
	Domain       string
	AppVersion   string
	Trial        bool
	TrialEndDate time.Time
	DeployedAt   *time.Time
	Node         string
	IPAddress    string
	SSHPort      int
}

// ClientInput carries a full client payload, as submitted by the admin API.
type ClientInput struct {
	Name             string
	Email            string
	EmailConfirmed   bool
	Organization     string
	Country          string
	Consent          bool
	MarketingConsent bool
	Approved         bool
	Deployment       DeploymentInput
	Subscriptions    []persistence.Subscription
}

// ProfileInput carries the fields a client may change on its own profile.
// Nil pointers leave the stored value untouched.
type ProfileInput struct {
	Name             *string
	Organization     *string
	Country          *string
	MarketingConsent *bool
}

// Service defines the client account management operations.
type Service interface {
	Create(ctx context.Context, input ClientInput) (persistence.Client, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	List(ctx context.Context) ([]persistence.Client, error)
	Edit(ctx context.Context, id uuid.UUID, input ClientInput) (persistence.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Deploy(ctx context.Context, id uuid.UUID) error
	Profile(ctx context.Context, clientID uuid.UUID) (persistence.Client, error)
	UpdateProfile(ctx context.Context, clientID uuid.UUID, input ProfileInput) (persistence.Client, error)
}

type service struct {
	clients  ClientStore
	deployer Deployer
	logger   *zap.Logger
}

// New constructs the clients Service.
func New(clients ClientStore, deployer Deployer, logger *zap.Logger) Service {
	if clients == nil {
		panic("client store is required")
	}
	if deployer == nil {
		panic("deployer is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &service{clients: clients, deployer: deployer, logger: logger}
}

func (s *service) Create(ctx context.Context, input ClientInput) (persistence.Client, error) {
	client := persistence.Client{}
	applyClientInput(&client, input)

	created, err := s.clients.AddClient(ctx, client)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}

	s.log(ctx).Info("client created", zap.String("client_id", created.ID.String()))
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (persistence.Client, error) {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}
	return client, nil
}

func (s *service) List(ctx context.Context) ([]persistence.Client, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return clients, nil
}

// Edit overwrites the client's state with the validated payload. The
// subscriptions array is replaced wholesale, never merged entry by entry.
func (s *service) Edit(ctx context.Context, id uuid.UUID, input ClientInput) (persistence.Client, error) {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}

	applyClientInput(&client, input)

	updated, err := s.clients.UpdateClient(ctx, client)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}

	s.log(ctx).Info("client updated", zap.String("client_id", updated.ID.String()))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return translateClientError(err)
	}
	s.log(ctx).Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

// Deploy places a provisioning order with the client's current snapshot.
func (s *service) Deploy(ctx context.Context, id uuid.UUID) error {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return translateClientError(err)
	}

	if err := s.deployer.PlaceOrder(ctx, client); err != nil {
		return apperrors.Internal(err)
	}

	s.log(ctx).Info("deployment order placed", zap.String("client_id", id.String()))
	return nil
}

func (s *service) Profile(ctx context.Context, clientID uuid.UUID) (persistence.Client, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}
	return client, nil
}

func (s *service) UpdateProfile(ctx context.Context, clientID uuid.UUID, input ProfileInput) (persistence.Client, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Organization != nil {
		client.Organization = *input.Organization
	}
	if input.Country != nil {
		client.Country = *input.Country
	}
	if input.MarketingConsent != nil {
		client.MarketingConsent = *input.MarketingConsent
	}

	updated, err := s.clients.UpdateClient(ctx, client)
	if err != nil {
		return persistence.Client{}, translateClientError(err)
	}

	s.log(ctx).Info("client profile updated", zap.String("client_id", clientID.String()))
	return updated, nil
}

func applyClientInput(client *persistence.Client, input ClientInput) {
	client.Name = input.Name
	client.Email = input.Email
	client.EmailConfirmed = input.EmailConfirmed
	client.Organization = input.Organization
	client.Country = input.Country
	client.Consent = input.Consent
	client.MarketingConsent = input.MarketingConsent
	client.Approved = input.Approved
	client.Deployment = persistence.Deployment{
		Status:       input.Deployment.Status,
		Domain:       input.Deployment.Domain,
		AppVersion:   input.Deployment.AppVersion,
		Trial:        input.Deployment.Trial,
		TrialEndDate: input.Deployment.TrialEndDate,
		DeployedAt:   input.Deployment.DeployedAt,
		Node:         input.Deployment.Node,
		IPAddress:    input.Deployment.IPAddress,
		SSHPort:      input.Deployment.SSHPort,
	}

	subscriptions := input.Subscriptions
	if subscriptions == nil {
		subscriptions = []persistence.Subscription{}
	}
	client.Subscriptions = subscriptions
}

func translateClientError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrClientNotFound):
		return apperrors.NotFound("client")
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
