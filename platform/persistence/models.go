package persistence

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/deskradar/clients-api/platform/auth"
)

// Deployment states.
const (
	StatusNonExistent = "non_existent"
	StatusActive      = "active"
	StatusSuspended   = "suspended"
)

// Subscription states, as reported by the billing provider.
const (
	SubscriptionActive  = "active"
	SubscriptionPastDue = "past_due"
	SubscriptionDeleted = "deleted"
)

// ProviderPaddle is the only billing provider currently wired.
const ProviderPaddle = "paddle"

var (
	// ErrUserNotFound indicates a missing admin user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrClientNotFound indicates a missing client record.
	ErrClientNotFound = errors.New("client not found")
	// ErrTokenNotFound indicates a missing, expired or already consumed token.
	ErrTokenNotFound = errors.New("token not found")
	// ErrDomainTaken indicates the requested deployment domain is already in use.
	ErrDomainTaken = errors.New("domain is already taken")
	// ErrEmailTaken indicates the client email is already registered.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUserConflict indicates an admin user with the same email exists.
	ErrUserConflict = errors.New("user conflict")
)

// User is an administrative account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) PrincipalID() string   { return u.ID.String() }
func (u User) PrincipalType() string { return auth.TypeUser }

// Deployment describes the provisioned instance belonging to a client.
type Deployment struct {
	Status       string     `json:"status"`
	Domain       string     `json:"domain"`
	AppVersion   string     `json:"app_version"`
	Trial        bool       `json:"trial"`
	TrialEndDate time.Time  `json:"trial_end_date"`
	DeployedAt   *time.Time `json:"deployed_at,omitempty"`
	Node         string     `json:"node"`
	IPAddress    string     `json:"ipaddress"`
	SSHPort      int        `json:"ssh_port"`
}

// Subscription is one billing subscription attached to a client. Entries are
// identified by the (Provider, ProviderSubscriptionID) pair.
type Subscription struct {
	Provider               string     `json:"provider"`
	ProviderSubscriptionID string     `json:"provider_subscription_id"`
	ProviderPlanID         string     `json:"provider_plan_id"`
	Status                 string     `json:"status"`
	ExpiryDate             *time.Time `json:"expiry_date,omitempty"`
	UpdateURL              string     `json:"update_url,omitempty"`
	CancelURL              string     `json:"cancel_url,omitempty"`
}

// Client is a tenant account.
type Client struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	EmailConfirmed   bool           `json:"email_confirmed"`
	Organization     string         `json:"organization"`
	Country          string         `json:"country"`
	Consent          bool           `json:"consent"`
	MarketingConsent bool           `json:"marketing_consent"`
	Approved         bool           `json:"approved"`
	Deployment       Deployment     `json:"deployment"`
	Subscriptions    []Subscription `json:"subscriptions"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (c Client) PrincipalID() string   { return c.ID.String() }
func (c Client) PrincipalType() string { return auth.TypeClient }

// FindSubscription returns a pointer into Subscriptions for the entry with
// the given provider subscription id, or nil.
func (c *Client) FindSubscription(provider, providerSubscriptionID string) *Subscription {
	for i := range c.Subscriptions {
		sub := &c.Subscriptions[i]
		if sub.Provider == provider && sub.ProviderSubscriptionID == providerSubscriptionID {
			return sub
		}
	}
	return nil
}

// LoginToken is a single-use magic-link credential.
type LoginToken struct {
	ID         uuid.UUID
	UserType   string
	UserID     uuid.UUID
	Token      string
	ExpiryDate time.Time
	CreatedAt  time.Time
}

// VerificationToken is a single-use email confirmation credential issued on
// signup.
type VerificationToken struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	Token      string
	ExpiryDate time.Time
	CreatedAt  time.Time
}

// WebhookLog is an audit record of a processed billing webhook.
type WebhookLog struct {
	ID        uuid.UUID
	Provider  string
	AlertName string
	Payload   map[string]any
	CreatedAt time.Time
}
