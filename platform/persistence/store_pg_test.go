package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startTestPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("clients_api"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	require.NoError(t, Bootstrap(ctx, pool))
	return pool
}

func TestConsumeLoginTokenSingleUse(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping token store integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pool := startTestPool(t, ctx)
	store, err := NewTokenStore(pool)
	require.NoError(t, err)

	token, err := store.CreateLoginToken(ctx, "user", uuid.New())
	require.NoError(t, err)
	require.Len(t, token.Token, 64)

	// Redeem the same value from several goroutines. Exactly one DELETE may
	// return the row.
	const redeemers = 8
	results := make(chan error, redeemers)
	var wg sync.WaitGroup
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ConsumeLoginToken(ctx, token.Token, time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var redeemed, missed int
	for err := range results {
		if err == nil {
			redeemed++
			continue
		}
		require.ErrorIs(t, err, ErrTokenNotFound)
		missed++
	}
	require.Equal(t, 1, redeemed)
	require.Equal(t, redeemers-1, missed)

	_, err = store.ConsumeLoginToken(ctx, token.Token, time.Now())
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeLoginTokenExpired(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping token store integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pool := startTestPool(t, ctx)
	store, err := NewTokenStore(pool)
	require.NoError(t, err)

	token, err := store.CreateLoginToken(ctx, "client", uuid.New())
	require.NoError(t, err)

	_, err = store.ConsumeLoginToken(ctx, token.Token, token.ExpiryDate.Add(time.Second))
	require.ErrorIs(t, err, ErrTokenNotFound)

	// An expired value is rejected, not deleted, so a clock rollback can not
	// resurrect it for another caller either.
	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_tokens WHERE token = $1`, token.Token).Scan(&remaining))
	require.Equal(t, 1, remaining)
}

func TestFindExpiredCandidateSelection(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping client store integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pool := startTestPool(t, ctx)
	store, err := NewClientStore(pool)
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	longGone := cutoff.Add(-10 * 24 * time.Hour)
	stillValid := time.Now().UTC().Add(24 * time.Hour)

	seed := func(slug, status string, trial bool, trialEnd time.Time, subs []Subscription) Client {
		t.Helper()
		client, err := store.AddClient(ctx, Client{
			Name:    slug,
			Email:   slug + "@deskradar.test",
			Country: "DE",
			Consent: true,
			Deployment: Deployment{
				Status:       status,
				Domain:       slug,
				AppVersion:   "1.0.0",
				Trial:        trial,
				TrialEndDate: trialEnd,
				SSHPort:      22,
			},
			Subscriptions: subs,
		})
		require.NoError(t, err)
		return client
	}

	paddleSub := func(id, status string, expiry time.Time) Subscription {
		return Subscription{
			Provider:               ProviderPaddle,
			ProviderSubscriptionID: id,
			ProviderPlanID:         "plan-1",
			Status:                 status,
			ExpiryDate:             &expiry,
		}
	}

	expiredTrial := seed("expiredtrial", StatusActive, true, longGone, nil)
	seed("runningtrial", StatusActive, true, stillValid, nil)
	lapsedPaid := seed("lapsedpaid", StatusActive, false, longGone, []Subscription{
		paddleSub("sub-lapsed", SubscriptionDeleted, longGone),
	})
	seed("renewedpaid", StatusActive, false, longGone, []Subscription{
		paddleSub("sub-old", SubscriptionDeleted, longGone),
		paddleSub("sub-live", SubscriptionActive, stillValid),
	})
	seed("nosubsyet", StatusActive, false, longGone, nil)
	seed("suspended", StatusSuspended, true, longGone, nil)

	// Drain the candidates the way the reconciliation job does: tear one
	// down, persist, ask again.
	found := map[uuid.UUID]bool{}
	for {
		candidate, err := store.FindExpiredCandidate(ctx, cutoff)
		if err != nil {
			require.ErrorIs(t, err, ErrClientNotFound)
			break
		}
		require.False(t, found[candidate.ID], "candidate returned twice")
		found[candidate.ID] = true

		candidate.Deployment.Status = StatusNonExistent
		_, err = store.UpdateClient(ctx, candidate)
		require.NoError(t, err)
	}

	require.Len(t, found, 2)
	require.True(t, found[expiredTrial.ID])
	require.True(t, found[lapsedPaid.ID])
}
