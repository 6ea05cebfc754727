package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/persistence"
)

// Supported Paddle alert names.
const (
	AlertSubscriptionCreated          = "subscription_created"
	AlertSubscriptionUpdated          = "subscription_updated"
	AlertSubscriptionCancelled        = "subscription_cancelled"
	AlertSubscriptionPaymentSucceeded = "subscription_payment_succeeded"
)

// PaddleAlert is a validated Paddle webhook, reduced to the fields the
// subscription transitions consume. Payload keeps the full raw form payload
// for the notification and the audit log.
type PaddleAlert struct {
	AlertName                 string
	ClientID                  string
	Status                    string
	SubscriptionID            string
	PlanID                    string
	NextBillDate              string
	CancellationEffectiveDate string
	CancelURL                 string
	UpdateURL                 string
	Payload                   map[string]any
}

// Service processes billing provider webhooks.
type Service interface {
	ProcessPaddleAlert(ctx context.Context, alert PaddleAlert) error
}

type service struct {
	clients  ClientStore
	logs     WebhookLogStore
	deployer Deployer
	notifier Notifier
	logger   *zap.Logger
}

// New constructs the webhooks Service.
func New(clients ClientStore, logs WebhookLogStore, deployer Deployer, notifier Notifier, logger *zap.Logger) Service {
	if clients == nil {
		panic("client store is required")
	}
	if logs == nil {
		panic("webhook log store is required")
	}
	if deployer == nil {
		panic("deployer is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &service{
		clients:  clients,
		logs:     logs,
		deployer: deployer,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessPaddleAlert applies the subscription transition for the alert, then
// records it and notifies the operators. The audit log is best effort: a
// failed insert does not reject a webhook already applied.
func (s *service) ProcessPaddleAlert(ctx context.Context, alert PaddleAlert) error {
	var err error
	switch alert.AlertName {
	case AlertSubscriptionCreated:
		err = s.subscriptionCreated(ctx, alert)
	case AlertSubscriptionUpdated:
		err = s.subscriptionUpdated(ctx, alert)
	case AlertSubscriptionCancelled:
		err = s.subscriptionCancelled(ctx, alert)
	case AlertSubscriptionPaymentSucceeded:
		err = s.subscriptionPaymentSucceeded(ctx, alert)
	}
	if err != nil {
		return err
	}
	s.log(ctx).Info("paddle webhook processed", zap.String("alert_name", alert.AlertName))

	if _, err := s.logs.CreateWebhookLog(ctx, persistence.ProviderPaddle, alert.AlertName, alert.Payload); err != nil {
		s.log(ctx).Error("recording webhook log failed", zap.Error(err))
	}

	if err := s.notifier.SendWebhookNotification(ctx, alert.Payload); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// subscriptionCreated ends the client's trial and attaches the new
// subscription, then orders a (re)deployment.
func (s *service) subscriptionCreated(ctx context.Context, alert PaddleAlert) error {
	client, err := s.getClient(ctx, alert.ClientID)
	if err != nil {
		return err
	}

	expiry, err := parsePaddleDate(alert.NextBillDate)
	if err != nil {
		return apperrors.Internal(err)
	}

	client.Deployment.Trial = false
	client.Subscriptions = append(client.Subscriptions, persistence.Subscription{
		Provider:               persistence.ProviderPaddle,
		ProviderSubscriptionID: alert.SubscriptionID,
		ProviderPlanID:         alert.PlanID,
		Status:                 alert.Status,
		ExpiryDate:             &expiry,
		CancelURL:              alert.CancelURL,
		UpdateURL:              alert.UpdateURL,
	})

	client, err = s.updateClient(ctx, client)
	if err != nil {
		return err
	}

	if err := s.deployer.PlaceOrder(ctx, client); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *service) subscriptionUpdated(ctx context.Context, alert PaddleAlert) error {
	client, err := s.getClient(ctx, alert.ClientID)
	if err != nil {
		return err
	}

	expiry, err := parsePaddleDate(alert.NextBillDate)
	if err != nil {
		return apperrors.Internal(err)
	}

	sub := client.FindSubscription(persistence.ProviderPaddle, alert.SubscriptionID)
	if sub == nil {
		return apperrors.NotFound("subscription")
	}
	sub.Status = alert.Status
	sub.ExpiryDate = &expiry
	sub.ProviderPlanID = alert.PlanID
	sub.CancelURL = alert.CancelURL
	sub.UpdateURL = alert.UpdateURL

	_, err = s.updateClient(ctx, client)
	return err
}

// subscriptionCancelled keeps the subscription entry until its effective end
// date and orders a deployment update.
func (s *service) subscriptionCancelled(ctx context.Context, alert PaddleAlert) error {
	client, err := s.getClient(ctx, alert.ClientID)
	if err != nil {
		return err
	}

	expiry, err := parsePaddleDate(alert.CancellationEffectiveDate)
	if err != nil {
		return apperrors.Internal(err)
	}

	sub := client.FindSubscription(persistence.ProviderPaddle, alert.SubscriptionID)
	if sub == nil {
		return apperrors.NotFound("subscription")
	}
	sub.Status = alert.Status
	sub.ExpiryDate = &expiry
	sub.ProviderPlanID = alert.PlanID

	client, err = s.updateClient(ctx, client)
	if err != nil {
		return err
	}

	if err := s.deployer.PlaceOrder(ctx, client); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *service) subscriptionPaymentSucceeded(ctx context.Context, alert PaddleAlert) error {
	client, err := s.getClient(ctx, alert.ClientID)
	if err != nil {
		return err
	}

	expiry, err := parsePaddleDate(alert.NextBillDate)
	if err != nil {
		return apperrors.Internal(err)
	}

	sub := client.FindSubscription(persistence.ProviderPaddle, alert.SubscriptionID)
	if sub == nil {
		return apperrors.NotFound("subscription")
	}
	sub.Status = alert.Status
	sub.ExpiryDate = &expiry
	sub.ProviderPlanID = alert.PlanID

	_, err = s.updateClient(ctx, client)
	return err
}

// getClient resolves the passthrough client id. Unapproved clients never
// carry billable subscriptions.
func (s *service) getClient(ctx context.Context, clientID string) (persistence.Client, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return persistence.Client{}, apperrors.NotFound("client")
	}

	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrClientNotFound) {
			return persistence.Client{}, apperrors.NotFound("client")
		}
		return persistence.Client{}, apperrors.Internal(err)
	}

	if !client.Approved {
		return persistence.Client{}, apperrors.Forbidden("client is unapproved")
	}
	return client, nil
}

func (s *service) updateClient(ctx context.Context, client persistence.Client) (persistence.Client, error) {
	updated, err := s.clients.UpdateClient(ctx, client)
	if err != nil {
		return persistence.Client{}, apperrors.Internal(err)
	}
	return updated, nil
}

var paddleDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePaddleDate parses Paddle's date strings as UTC.
func parsePaddleDate(value string) (time.Time, error) {
	for _, layout := range paddleDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid paddle date %q", value)
}

func (s *service) log(ctx context.Context) *zap.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return s.logger
}
