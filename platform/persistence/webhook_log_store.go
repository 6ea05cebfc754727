package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const WebhookLogsTable = "webhook_logs"

// WebhookLogStore records processed billing webhooks for auditing.
type WebhookLogStore struct {
	pool *pgxpool.Pool
}

func NewWebhookLogStore(pool *pgxpool.Pool) (*WebhookLogStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &WebhookLogStore{pool: pool}, nil
}

// CreateWebhookLog persists one processed webhook payload.
func (s *WebhookLogStore) CreateWebhookLog(ctx context.Context, provider, alertName string, payload map[string]any) (WebhookLog, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (provider, alert_name, payload)
        VALUES ($1, $2, $3)
        RETURNING id, provider, alert_name, payload, created_at
    `, WebhookLogsTable), provider, alertName, payload)

	var log WebhookLog
	if err := row.Scan(&log.ID, &log.Provider, &log.AlertName, &log.Payload, &log.CreatedAt); err != nil {
		return WebhookLog{}, err
	}
	return log, nil
}
