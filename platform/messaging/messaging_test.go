package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/deskradar/clients-api/platform/persistence"
)

type published struct {
	topicARN string
	subject  string
	message  string
}

type fakePublisher struct {
	publishFn func(ctx context.Context, topicARN, subject, message string) error
	calls     []published
}

func (p *fakePublisher) Publish(ctx context.Context, topicARN, subject, message string) error {
	p.calls = append(p.calls, published{topicARN: topicARN, subject: subject, message: message})
	if p.publishFn != nil {
		return p.publishFn(ctx, topicARN, subject, message)
	}
	return nil
}

func TestDeployerPlaceOrderPayload(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	deployer, err := NewDeployer(publisher, "arn:aws:sns:eu-west-1:1:deploy")
	require.NoError(t, err)

	deployedAt := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	client := persistence.Client{
		ID:       uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Name:     "Acme",
		Email:    "ops@acme.test",
		Consent:  true,
		Approved: true,
		Country:  "DE",
		Deployment: persistence.Deployment{
			Status:       persistence.StatusActive,
			Domain:       "acme",
			AppVersion:   "1.2.3",
			Trial:        false,
			TrialEndDate: deployedAt,
			DeployedAt:   &deployedAt,
			Node:         "node-1",
			IPAddress:    "10.0.0.8",
			SSHPort:      2022,
		},
	}

	require.NoError(t, deployer.PlaceOrder(context.Background(), client))
	require.Len(t, publisher.calls, 1)
	require.Equal(t, "arn:aws:sns:eu-west-1:1:deploy", publisher.calls[0].topicARN)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[0].message), &payload))

	// Only the whitelisted snapshot fields travel in the order.
	require.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", payload["id"])
	require.Equal(t, "Acme", payload["name"])
	require.Equal(t, "ops@acme.test", payload["email"])
	require.Equal(t, true, payload["consent"])
	require.Equal(t, true, payload["approved"])
	require.NotContains(t, payload, "country")
	require.NotContains(t, payload, "subscriptions")

	deployment, ok := payload["deployment"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "active", deployment["status"])
	require.Equal(t, "acme", deployment["domain"])
	require.Equal(t, "1.2.3", deployment["app_version"])
	require.Equal(t, float64(2022), deployment["ssh_port"])
	require.NotContains(t, deployment, "deployed_at")
}

func TestDeployerPropagatesPublishError(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{
		publishFn: func(context.Context, string, string, string) error {
			return errors.New("sns unavailable")
		},
	}
	deployer, err := NewDeployer(publisher, "arn:deploy")
	require.NoError(t, err)

	err = deployer.PlaceOrder(context.Background(), persistence.Client{})
	require.ErrorContains(t, err, "sns unavailable")
}

func TestMailerEvents(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	mailer, err := NewMailer(publisher, "arn:mail")
	require.NoError(t, err)

	ctx := context.Background()
	expiry := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, mailer.SendLoginMail(ctx, "a@b.test", "A", "https://app.deskradar.com/login/tok", expiry))
	require.NoError(t, mailer.SendSignupReceivedMail(ctx, "a@b.test", "A", "acme"))
	require.NoError(t, mailer.SendVerificationMail(ctx, "a@b.test", "A", "https://app.deskradar.com/confirm/tok", expiry))

	require.Len(t, publisher.calls, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[0].message), &first))
	require.Equal(t, MailEventClientLogin, first["event"])
	require.Equal(t, "https://app.deskradar.com/login/tok", first["link"])
	require.Equal(t, "2021-03-04T05:06:07Z", first["date"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[1].message), &second))
	require.Equal(t, MailEventSignupReceived, second["event"])
	require.Equal(t, "acme", second["account"])
	require.NotContains(t, second, "link")

	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[2].message), &third))
	require.Equal(t, MailEventEmailConfirm, third["event"])
	require.Equal(t, "https://app.deskradar.com/confirm/tok", third["link"])
}

func TestNotifierEvents(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{}
	notifier, err := NewNotifier(publisher, "arn:notify", "production")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, notifier.SendLoginNotification(ctx, "client", "c-1"))
	require.NoError(t, notifier.SendClientSignupNotification(ctx, "c-1"))
	require.NoError(t, notifier.SendClientEmailConfirmedNotification(ctx, "c-1"))
	require.NoError(t, notifier.SendWebhookNotification(ctx, map[string]any{"alert_name": "subscription_created"}))

	require.Len(t, publisher.calls, 4)
	require.Equal(t, "[Deskradar Clients API] Login", publisher.calls[0].subject)
	require.Equal(t, "[Deskradar Clients API] Client signup", publisher.calls[1].subject)
	require.Equal(t, "[Deskradar Clients API] Client email confirmed", publisher.calls[2].subject)
	require.Equal(t, "[Deskradar Clients API] Webhook Received", publisher.calls[3].subject)

	var login map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[0].message), &login))
	require.Equal(t, "production", login["env"])
	require.Equal(t, "login", login["event"])
	require.Equal(t, "client", login["user_type"])
	require.Equal(t, "c-1", login["user_id"])

	var webhook map[string]any
	require.NoError(t, json.Unmarshal([]byte(publisher.calls[3].message), &webhook))
	require.Equal(t, "webhook", webhook["event"])
	payload, ok := webhook["payload"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "subscription_created", payload["alert_name"])
}
