package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ClientsTable = "clients"

const clientColumns = `
        id, name, email, email_confirmed, organization, country, consent,
        marketing_consent, approved, deployment_status, deployment_domain,
        deployment_app_version, deployment_trial, deployment_trial_end_date,
        deployment_deployed_at, deployment_node, deployment_ipaddress,
        deployment_ssh_port, subscriptions, created_at, updated_at`

// ClientStore exposes persistence helpers for the clients table.
type ClientStore struct {
	pool *pgxpool.Pool
}

func NewClientStore(pool *pgxpool.Pool) (*ClientStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ClientStore{pool: pool}, nil
}

// CreateClientParams captures the fields required to insert a new client.
// Deployment and subscription fields start from their placeholder defaults.
type CreateClientParams struct {
	Name             string
	Email            string
	Organization     string
	Country          string
	Consent          bool
	MarketingConsent bool
	Domain           string
	TrialEndDate     time.Time
}

// CreateClient inserts a new client after checking the uniqueness of the
// deployment domain and the email. A domain collision wins over an email
// collision when both are taken.
func (s *ClientStore) CreateClient(ctx context.Context, params CreateClientParams) (Client, error) {
	if err := s.checkUnique(ctx, uuid.Nil, params.Domain, params.Email); err != nil {
		return Client{}, err
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (name, email, organization, country, consent,
                        marketing_consent, deployment_domain, deployment_trial_end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING`+clientColumns, ClientsTable),
		params.Name,
		params.Email,
		params.Organization,
		params.Country,
		params.Consent,
		params.MarketingConsent,
		params.Domain,
		params.TrialEndDate,
	)

	client, err := scanClient(row)
	if err != nil {
		return Client{}, mapClientUniqueError(err)
	}
	return client, nil
}

// AddClient inserts a fully specified client record, as submitted through
// the admin API. Uniqueness of domain and email is checked the same way as
// for signups.
func (s *ClientStore) AddClient(ctx context.Context, client Client) (Client, error) {
	if err := s.checkUnique(ctx, uuid.Nil, client.Deployment.Domain, client.Email); err != nil {
		return Client{}, err
	}
	if client.Subscriptions == nil {
		client.Subscriptions = []Subscription{}
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (name, email, email_confirmed, organization, country,
                        consent, marketing_consent, approved, deployment_status,
                        deployment_domain, deployment_app_version,
                        deployment_trial, deployment_trial_end_date,
                        deployment_deployed_at, deployment_node,
                        deployment_ipaddress, deployment_ssh_port, subscriptions)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
                $15, $16, $17, $18)
        RETURNING`+clientColumns, ClientsTable),
		client.Name,
		client.Email,
		client.EmailConfirmed,
		client.Organization,
		client.Country,
		client.Consent,
		client.MarketingConsent,
		client.Approved,
		client.Deployment.Status,
		client.Deployment.Domain,
		client.Deployment.AppVersion,
		client.Deployment.Trial,
		client.Deployment.TrialEndDate,
		client.Deployment.DeployedAt,
		client.Deployment.Node,
		client.Deployment.IPAddress,
		client.Deployment.SSHPort,
		client.Subscriptions,
	)

	created, err := scanClient(row)
	if err != nil {
		return Client{}, mapClientUniqueError(err)
	}
	return created, nil
}

// GetClient returns the client with the given id.
func (s *ClientStore) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT`+clientColumns+`
        FROM %s
        WHERE id = $1
    `, ClientsTable), id)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, err
	}
	return client, nil
}

// FindClientByEmail looks a client up by email. With approvedOnly set,
// unapproved clients are reported as not found.
func (s *ClientStore) FindClientByEmail(ctx context.Context, email string, approvedOnly bool) (Client, error) {
	query := fmt.Sprintf(`
        SELECT`+clientColumns+`
        FROM %s
        WHERE email = $1
    `, ClientsTable)
	if approvedOnly {
		query += " AND approved"
	}

	client, err := scanClient(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, err
	}
	return client, nil
}

// ListClients returns all clients ordered by creation time.
func (s *ClientStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT`+clientColumns+`
        FROM %s
        ORDER BY created_at
    `, ClientsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// UpdateClient persists the full mutable state of a client, re-checking the
// uniqueness of domain and email against other clients.
func (s *ClientStore) UpdateClient(ctx context.Context, client Client) (Client, error) {
	if err := s.checkUnique(ctx, client.ID, client.Deployment.Domain, client.Email); err != nil {
		return Client{}, err
	}
	if client.Subscriptions == nil {
		client.Subscriptions = []Subscription{}
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET name = $2, email = $3, email_confirmed = $4, organization = $5,
            country = $6, consent = $7, marketing_consent = $8, approved = $9,
            deployment_status = $10, deployment_domain = $11,
            deployment_app_version = $12, deployment_trial = $13,
            deployment_trial_end_date = $14, deployment_deployed_at = $15,
            deployment_node = $16, deployment_ipaddress = $17,
            deployment_ssh_port = $18, subscriptions = $19, updated_at = now()
        WHERE id = $1
        RETURNING`+clientColumns, ClientsTable),
		client.ID,
		client.Name,
		client.Email,
		client.EmailConfirmed,
		client.Organization,
		client.Country,
		client.Consent,
		client.MarketingConsent,
		client.Approved,
		client.Deployment.Status,
		client.Deployment.Domain,
		client.Deployment.AppVersion,
		client.Deployment.Trial,
		client.Deployment.TrialEndDate,
		client.Deployment.DeployedAt,
		client.Deployment.Node,
		client.Deployment.IPAddress,
		client.Deployment.SSHPort,
		client.Subscriptions,
	)

	updated, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, mapClientUniqueError(err)
	}
	return updated, nil
}

// DeleteClient removes a client record.
func (s *ClientStore) DeleteClient(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ClientsTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// FindExpiredCandidate returns one client whose deployment should be torn
// down: either an active trial that ended before cutoff, or an active paid
// deployment whose subscriptions all expired before cutoff. pgx.ErrNoRows is
// mapped to ErrClientNotFound when nothing qualifies.
func (s *ClientStore) FindExpiredCandidate(ctx context.Context, cutoff time.Time) (Client, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT`+clientColumns+`
        FROM %s
        WHERE deployment_status = $1
          AND (
                (deployment_trial AND deployment_trial_end_date < $2)
             OR (NOT deployment_trial
                 AND jsonb_array_length(subscriptions) > 0
                 AND NOT EXISTS (
                     SELECT 1
                     FROM jsonb_array_elements(subscriptions) AS sub
                     WHERE (sub->>'expiry_date')::timestamptz > $2
                 ))
          )
        LIMIT 1
    `, ClientsTable), StatusActive, cutoff)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrClientNotFound
		}
		return Client{}, err
	}
	return client, nil
}

// checkUnique reports domain and email collisions against other clients,
// domain first.
func (s *ClientStore) checkUnique(ctx context.Context, selfID uuid.UUID, domain, email string) error {
	var domainTaken, emailTaken bool

	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT
            EXISTS (SELECT 1 FROM %[1]s WHERE deployment_domain = $1 AND id <> $3),
            EXISTS (SELECT 1 FROM %[1]s WHERE email = $2 AND id <> $3)
    `, ClientsTable), domain, email, selfID).Scan(&domainTaken, &emailTaken)
	if err != nil {
		return err
	}

	if domainTaken {
		return ErrDomainTaken
	}
	if emailTaken {
		return ErrEmailTaken
	}
	return nil
}

// mapClientUniqueError translates constraint violations raced past
// checkUnique into the same sentinel errors.
func mapClientUniqueError(err error) error {
	switch uniqueViolationConstraint(err) {
	case "clients_deployment_domain_key":
		return ErrDomainTaken
	case "clients_email_key":
		return ErrEmailTaken
	}
	return err
}

func scanClient(row pgx.Row) (Client, error) {
	var client Client

	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.EmailConfirmed,
		&client.Organization,
		&client.Country,
		&client.Consent,
		&client.MarketingConsent,
		&client.Approved,
		&client.Deployment.Status,
		&client.Deployment.Domain,
		&client.Deployment.AppVersion,
		&client.Deployment.Trial,
		&client.Deployment.TrialEndDate,
		&client.Deployment.DeployedAt,
		&client.Deployment.Node,
		&client.Deployment.IPAddress,
		&client.Deployment.SSHPort,
		&client.Subscriptions,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return Client{}, err
	}

	if client.Subscriptions == nil {
		client.Subscriptions = []Subscription{}
	}
	return client, nil
}
