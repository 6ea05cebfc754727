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

const (
	LoginTokensTable        = "login_tokens"
	VerificationTokensTable = "verification_tokens"
)

// LoginTokenTTL is the lifetime of a magic-link login token.
const LoginTokenTTL = time.Hour

// VerificationTokenTTL is the lifetime of a signup confirmation token.
const VerificationTokenTTL = 7 * 24 * time.Hour

// TokenStore manages the ephemeral login and verification tokens.
type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) (*TokenStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TokenStore{pool: pool}, nil
}

// CreateLoginToken issues a fresh login token for the given principal.
func (s *TokenStore) CreateLoginToken(ctx context.Context, userType string, userID uuid.UUID) (LoginToken, error) {
	value, err := NewToken()
	if err != nil {
		return LoginToken{}, err
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_type, user_id, token, expiry_date)
        VALUES ($1, $2, $3, now() + make_interval(secs => $4))
        RETURNING id, user_type, user_id, token, expiry_date, created_at
    `, LoginTokensTable), userType, userID, value, LoginTokenTTL.Seconds())

	var token LoginToken
	if err := row.Scan(&token.ID, &token.UserType, &token.UserID, &token.Token, &token.ExpiryDate, &token.CreatedAt); err != nil {
		return LoginToken{}, err
	}
	return token, nil
}

// RecentLoginTokens returns how many login tokens the principal created since
// the given instant, and the creation time of the oldest of them.
func (s *TokenStore) RecentLoginTokens(ctx context.Context, userType string, userID uuid.UUID, since time.Time) (count int, oldest time.Time, err error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*), COALESCE(MIN(created_at), 'epoch'::timestamptz)
        FROM %s
        WHERE user_type = $1 AND user_id = $2 AND created_at >= $3
    `, LoginTokensTable), userType, userID, since)

	if err := row.Scan(&count, &oldest); err != nil {
		return 0, time.Time{}, err
	}
	return count, oldest, nil
}

// ConsumeLoginToken atomically deletes a non-expired login token by value and
// returns it. Under concurrent redemption of the same value only one caller
// gets the row; the rest see ErrTokenNotFound.
func (s *TokenStore) ConsumeLoginToken(ctx context.Context, value string, now time.Time) (LoginToken, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        DELETE FROM %s
        WHERE token = $1 AND expiry_date > $2
        RETURNING id, user_type, user_id, token, expiry_date, created_at
    `, LoginTokensTable), value, now)

	var token LoginToken
	if err := row.Scan(&token.ID, &token.UserType, &token.UserID, &token.Token, &token.ExpiryDate, &token.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginToken{}, ErrTokenNotFound
		}
		return LoginToken{}, err
	}
	return token, nil
}

// CreateVerificationToken issues a signup confirmation token for a client.
func (s *TokenStore) CreateVerificationToken(ctx context.Context, clientID uuid.UUID) (VerificationToken, error) {
	value, err := NewToken()
	if err != nil {
		return VerificationToken{}, err
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (client_id, token, expiry_date)
        VALUES ($1, $2, now() + make_interval(secs => $3))
        RETURNING id, client_id, token, expiry_date, created_at
    `, VerificationTokensTable), clientID, value, VerificationTokenTTL.Seconds())

	var token VerificationToken
	if err := row.Scan(&token.ID, &token.ClientID, &token.Token, &token.ExpiryDate, &token.CreatedAt); err != nil {
		return VerificationToken{}, err
	}
	return token, nil
}

// ConsumeVerificationToken atomically deletes a non-expired verification
// token by value and returns it.
func (s *TokenStore) ConsumeVerificationToken(ctx context.Context, value string, now time.Time) (VerificationToken, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        DELETE FROM %s
        WHERE token = $1 AND expiry_date > $2
        RETURNING id, client_id, token, expiry_date, created_at
    `, VerificationTokensTable), value, now)

	var token VerificationToken
	if err := row.Scan(&token.ID, &token.ClientID, &token.Token, &token.ExpiryDate, &token.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VerificationToken{}, ErrTokenNotFound
		}
		return VerificationToken{}, err
	}
	return token, nil
}
