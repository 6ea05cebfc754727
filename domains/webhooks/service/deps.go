package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/persistence"
)

// ClientStore is the persistence surface for subscription transitions.
type ClientStore interface {
	GetClient(ctx context.Context, id uuid.UUID) (persistence.Client, error)
	UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
}

// WebhookLogStore records every processed webhook for auditing.
type WebhookLogStore interface {
	CreateWebhookLog(ctx context.Context, provider, alertName string, payload map[string]any) (persistence.WebhookLog, error)
}

// Deployer places provisioning orders for client deployments.
type Deployer interface {
	PlaceOrder(ctx context.Context, client persistence.Client) error
}

// Notifier forwards received webhooks to the operators.
type Notifier interface {
	SendWebhookNotification(ctx context.Context, payload map[string]any) error
}
