package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Mail event discriminators consumed by the mail worker.
const (
	MailEventClientLogin    = "CLIENT_LOGIN"
	MailEventSignupReceived = "SIGNUP_RECEIVED"
	MailEventEmailConfirm   = "EMAIL_CONFIRM"
)

// Mailer publishes event-typed mail requests to the communicate topic. Actual
// template rendering and delivery happen downstream.
type Mailer struct {
	publisher Publisher
	topicARN  string
}

func NewMailer(publisher Publisher, topicARN string) (*Mailer, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topicARN == "" {
		return nil, errors.New("topic arn is required")
	}
	return &Mailer{publisher: publisher, topicARN: topicARN}, nil
}

type mailPayload struct {
	Event   string `json:"event"`
	Link    string `json:"link,omitempty"`
	Account string `json:"account,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Date    string `json:"date,omitempty"`
}

// SendLoginMail requests the magic-link login mail. link carries the rendered
// login URL, expiry the token's expiry date.
func (m *Mailer) SendLoginMail(ctx context.Context, email, name, link string, expiry time.Time) error {
	return m.send(ctx, mailPayload{
		Event: MailEventClientLogin,
		Link:  link,
		Email: email,
		Name:  name,
		Date:  expiry.Format(time.RFC3339),
	})
}

// SendSignupReceivedMail requests the signup acknowledgement mail. account is
// the deployment domain chosen at signup.
func (m *Mailer) SendSignupReceivedMail(ctx context.Context, email, name, account string) error {
	return m.send(ctx, mailPayload{
		Event:   MailEventSignupReceived,
		Account: account,
		Email:   email,
		Name:    name,
	})
}

// SendVerificationMail requests the email confirmation mail with the signup
// verification link.
func (m *Mailer) SendVerificationMail(ctx context.Context, email, name, link string, expiry time.Time) error {
	return m.send(ctx, mailPayload{
		Event: MailEventEmailConfirm,
		Link:  link,
		Email: email,
		Name:  name,
		Date:  expiry.Format(time.RFC3339),
	})
}

func (m *Mailer) send(ctx context.Context, payload mailPayload) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}
	return m.publisher.Publish(ctx, m.topicARN, "", string(message))
}
