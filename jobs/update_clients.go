package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/persistence"
)

// expiryGrace is how long an expired trial or subscription is tolerated
// before the deployment is torn down.
const expiryGrace = 30 * 24 * time.Hour

// ClientStore is the persistence surface of the reconciliation sweep.
type ClientStore interface {
	FindExpiredCandidate(ctx context.Context, cutoff time.Time) (persistence.Client, error)
	UpdateClient(ctx context.Context, client persistence.Client) (persistence.Client, error)
}

// Deployer places provisioning orders for client deployments.
type Deployer interface {
	PlaceOrder(ctx context.Context, client persistence.Client) error
}

// UpdateClientsJob tears down deployments of clients whose trial or
// subscriptions expired past the grace period.
type UpdateClientsJob struct {
	clients  ClientStore
	deployer Deployer
	logger   *zap.Logger
	now      func() time.Time
}

// NewUpdateClientsJob constructs the reconciliation job.
func NewUpdateClientsJob(clients ClientStore, deployer Deployer, logger *zap.Logger) *UpdateClientsJob {
	if clients == nil {
		panic("client store is required")
	}
	if deployer == nil {
		panic("deployer is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &UpdateClientsJob{
		clients:  clients,
		deployer: deployer,
		logger:   logger,
		now:      time.Now,
	}
}

func (j *UpdateClientsJob) Name() string { return "update-clients" }

// Run processes matching clients one at a time: the status transition is
// persisted first, so a client never matches twice even when its teardown
// order fails. Order failures are logged per client and do not stop the
// sweep; a failing persist does, since continuing would loop on the same
// client.
func (j *UpdateClientsJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-expiryGrace)
	count := 0

	for {
		client, err := j.clients.FindExpiredCandidate(ctx, cutoff)
		if err != nil {
			if errors.Is(err, persistence.ErrClientNotFound) {
				break
			}
			return err
		}

		j.logger.Info("scheduling client deployment for removal",
			zap.String("client_id", client.ID.String()))

		client.Deployment.Status = persistence.StatusNonExistent
		client, err = j.clients.UpdateClient(ctx, client)
		if err != nil {
			return err
		}

		if err := j.deployer.PlaceOrder(ctx, client); err != nil {
			j.logger.Error("placing teardown order failed",
				zap.String("client_id", client.ID.String()), zap.Error(err))
		}
		count++
	}

	j.logger.Debug("sweep finished", zap.Int("clients", count))
	return nil
}
