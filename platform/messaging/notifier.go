package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const notifySubjectPrefix = "[Deskradar Clients API]"

// Notifier sends operator notifications to the updates topic.
type Notifier struct {
	publisher Publisher
	topicARN  string
	env       string
}

func NewNotifier(publisher Publisher, topicARN, env string) (*Notifier, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topicARN == "" {
		return nil, errors.New("topic arn is required")
	}
	return &Notifier{publisher: publisher, topicARN: topicARN, env: env}, nil
}

type notificationPayload struct {
	Env      string `json:"env"`
	Event    string `json:"event"`
	UserType string `json:"user_type,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// SendLoginNotification announces a successful login confirmation.
func (n *Notifier) SendLoginNotification(ctx context.Context, userType, userID string) error {
	return n.send(ctx, "Login", notificationPayload{
		Env:      n.env,
		Event:    "login",
		UserType: userType,
		UserID:   userID,
	})
}

// SendClientSignupNotification announces a new client signup.
func (n *Notifier) SendClientSignupNotification(ctx context.Context, clientID string) error {
	return n.send(ctx, "Client signup", notificationPayload{
		Env:      n.env,
		Event:    "signup",
		ClientID: clientID,
	})
}

// SendClientEmailConfirmedNotification announces a confirmed client email.
func (n *Notifier) SendClientEmailConfirmedNotification(ctx context.Context, clientID string) error {
	return n.send(ctx, "Client email confirmed", notificationPayload{
		Env:      n.env,
		Event:    "email_confirmed",
		ClientID: clientID,
	})
}

// SendWebhookNotification forwards an ingested billing webhook payload.
func (n *Notifier) SendWebhookNotification(ctx context.Context, payload map[string]any) error {
	return n.send(ctx, "Webhook Received", notificationPayload{
		Env:     n.env,
		Event:   "webhook",
		Payload: payload,
	})
}

func (n *Notifier) send(ctx context.Context, subject string, payload notificationPayload) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.publisher.Publish(ctx, n.topicARN, fmt.Sprintf("%s %s", notifySubjectPrefix, subject), string(message))
}
