package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Principal type discriminators, carried in the token's typ claim.
const (
	TypeUser   = "user"
	TypeClient = "client"
)

// SessionTTL is the lifetime of an issued session token.
const SessionTTL = time.Hour

type sessionClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue signs a session token for the given principal. It returns the signed
// token and its expiry time.
func (i *TokenIssuer) Issue(principalType, principalID string, now time.Time) (string, time.Time, error) {
	validUntil := now.Add(SessionTTL)

	claims := sessionClaims{
		Typ: principalType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(validUntil),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, validUntil, nil
}

// Verify parses and validates a session token, returning the principal type
// and id it was issued for.
func (i *TokenIssuer) Verify(token string) (principalType, principalID string, err error) {
	claims := &sessionClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid {
		return "", "", jwt.ErrTokenUnverifiable
	}
	if claims.Typ != TypeUser && claims.Typ != TypeClient {
		return "", "", fmt.Errorf("unknown principal type %q", claims.Typ)
	}
	return claims.Typ, claims.Subject, nil
}
