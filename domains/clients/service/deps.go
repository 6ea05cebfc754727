package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/persistence"
)

// ClientStore is the persistence surface for client account management.
type ClientStore interface {
	AddClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	ListClients(ctx context.Context) ([]persistence.Client, error)
	UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

// Deployer places provisioning orders for client deployments.
type Deployer interface {
	PlaceOrder(ctx context.Context, client persistence.Client) error
}
