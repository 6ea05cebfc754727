package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/persistence"
)

type mockClientStore struct {
	addClientFn    func(ctx context.Context, client persistence.Client) (persistence.Client, error)
	getClientFn    func(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	listClientsFn  func(ctx context.Context) ([]persistence.Client, error)
	updateClientFn func(ctx context.Context, client persistence.Client) (persistence.Client, error)
	deleteClientFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockClientStore) AddClient(ctx context.Context, client persistence.Client) (persistence.Client, error) {
	return m.addClientFn(ctx, client)
}

func (m *mockClientStore) GetClient(ctx context.Context, id uuid.UUID) (persistence.Client, error) {
	return m.getClientFn(ctx, id)
}

func (m *mockClientStore) ListClients(ctx context.Context) ([]persistence.Client, error) {
	return m.listClientsFn(ctx)
}

func (m *mockClientStore) UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error) {
	return m.updateClientFn(ctx, client)
}

func (m *mockClientStore) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return m.deleteClientFn(ctx, id)
}

type mockDeployer struct {
	placeOrderFn func(ctx context.Context, client persistence.Client) error
	calls        int
}

func (m *mockDeployer) PlaceOrder(ctx context.Context, client persistence.Client) error {
	m.calls++
	if m.placeOrderFn != nil {
		return m.placeOrderFn(ctx, client)
	}
	return nil
}

func fullInput() ClientInput {
	return ClientInput{
		Name:             "Acme",
		Email:            "ops@acme.test",
		EmailConfirmed:   true,
		Organization:     "Acme Inc",
		Country:          "DE",
		Consent:          true,
		MarketingConsent: false,
		Approved:         true,
		Deployment: DeploymentInput{
			Status:       persistence.StatusActive,
			Domain:       "acme",
			AppVersion:   "1.2.3",
			Trial:        false,
			TrialEndDate: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
			Node:         "node1",
			IPAddress:    "10.0.0.1",
			SSHPort:      22,
		},
		Subscriptions: []persistence.Subscription{},
	}
}

func TestCreateDomainTaken(t *testing.T) {
	t.Parallel()

	clients := &mockClientStore{
		addClientFn: func(context.Context, persistence.Client) (persistence.Client, error) {
			return persistence.Client{}, persistence.ErrDomainTaken
		},
	}

	svc := New(clients, &mockDeployer{}, zap.NewNop())

	_, err := svc.Create(context.Background(), fullInput())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "ValidationError", appErr.Name)
	require.Equal(t, "domain is already taken", appErr.Message)
}

func TestEditOverwritesStateAndReplacesSubscriptions(t *testing.T) {
	t.Parallel()

	clientID := uuid.New()
	existingExpiry := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

	clients := &mockClientStore{
		getClientFn: func(_ context.Context, id uuid.UUID) (persistence.Client, error) {
			require.Equal(t, clientID, id)
			return persistence.Client{
				ID:    clientID,
				Name:  "Old",
				Email: "old@acme.test",
				Subscriptions: []persistence.Subscription{
					{Provider: persistence.ProviderPaddle, ProviderSubscriptionID: "sub-1", ExpiryDate: &existingExpiry},
				},
			}, nil
		},
		updateClientFn: func(_ context.Context, client persistence.Client) (persistence.Client, error) {
			return client, nil
		},
	}

	svc := New(clients, &mockDeployer{}, zap.NewNop())

	input := fullInput()
	input.Subscriptions = []persistence.Subscription{
		{Provider: persistence.ProviderPaddle, ProviderSubscriptionID: "sub-2", Status: persistence.SubscriptionActive},
	}

	updated, err := svc.Edit(context.Background(), clientID, input)
	require.NoError(t, err)
	require.Equal(t, "Acme", updated.Name)
	require.Len(t, updated.Subscriptions, 1)
	require.Equal(t, "sub-2", updated.Subscriptions[0].ProviderSubscriptionID)
}

func TestDeploySendsCurrentSnapshot(t *testing.T) {
	t.Parallel()

	clientID := uuid.New()
	clients := &mockClientStore{
		getClientFn: func(context.Context, uuid.UUID) (persistence.Client, error) {
			return persistence.Client{ID: clientID, Name: "Acme"}, nil
		},
	}
	deployer := &mockDeployer{
		placeOrderFn: func(_ context.Context, client persistence.Client) error {
			require.Equal(t, clientID, client.ID)
			return nil
		},
	}

	svc := New(clients, deployer, zap.NewNop())

	require.NoError(t, svc.Deploy(context.Background(), clientID))
	require.Equal(t, 1, deployer.calls)
}

func TestDeployUnknownClient(t *testing.T) {
	t.Parallel()

	clients := &mockClientStore{
		getClientFn: func(context.Context, uuid.UUID) (persistence.Client, error) {
			return persistence.Client{}, persistence.ErrClientNotFound
		},
	}
	deployer := &mockDeployer{}

	svc := New(clients, deployer, zap.NewNop())

	err := svc.Deploy(context.Background(), uuid.New())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "NotFoundError", appErr.Name)
	require.Zero(t, deployer.calls)
}

func TestUpdateProfileAppliesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	clientID := uuid.New()
	clients := &mockClientStore{
		getClientFn: func(context.Context, uuid.UUID) (persistence.Client, error) {
			return persistence.Client{
				ID:               clientID,
				Name:             "Old",
				Organization:     "Old Org",
				Country:          "DE",
				MarketingConsent: false,
			}, nil
		},
		updateClientFn: func(_ context.Context, client persistence.Client) (persistence.Client, error) {
			return client, nil
		},
	}

	svc := New(clients, &mockDeployer{}, zap.NewNop())

	name := "New"
	consent := true
	updated, err := svc.UpdateProfile(context.Background(), clientID, ProfileInput{
		Name:             &name,
		MarketingConsent: &consent,
	})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Name)
	require.Equal(t, "Old Org", updated.Organization)
	require.Equal(t, "DE", updated.Country)
	require.True(t, updated.MarketingConsent)
}
