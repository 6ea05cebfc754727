package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/deskradar/clients-api/platform/apperrors"
)

// Principal is an authenticated actor attached to the request context.
// Concrete records (admin users, clients) implement it.
type Principal interface {
	PrincipalID() string
	PrincipalType() string
}

// Resolver loads the principal record a verified token refers to. It must
// return apperrors values; a NotFoundError is translated to 401.
type Resolver interface {
	ResolvePrincipal(ctx context.Context, principalType, principalID string) (Principal, error)
}

type principalCtxKey struct{}

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}

// Authenticate verifies the bearer token and resolves its principal. Requests
// without a valid token and live principal are rejected with 401.
func Authenticate(tokens *TokenIssuer, resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				apperrors.Write(w, r, nil, apperrors.Unauthorized("", nil))
				return
			}

			principalType, principalID, err := tokens.Verify(raw)
			if err != nil {
				apperrors.Write(w, r, nil, apperrors.Unauthorized("", err))
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), principalType, principalID)
			if err != nil {
				if appErr, isApp := apperrors.As(err); isApp && !appErr.IsInternal() {
					apperrors.Write(w, r, nil, apperrors.Unauthorized("User not found", err))
					return
				}
				apperrors.Write(w, r, nil, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Rule decides whether a principal of a given type may use a route.
type Rule func(r *http.Request, p Principal) (bool, error)

// Always permits every principal of the mapped type.
func Always(*http.Request, Principal) (bool, error) { return true, nil }

// Never denies every principal of the mapped type. Equivalent to leaving the
// type out of the rule map, but explicit in route declarations.
func Never(*http.Request, Principal) (bool, error) { return false, nil }

// Authorize evaluates the rule mapped to the authenticated principal's type.
// An unmapped type is denied.
func Authorize(rules map[string]Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				apperrors.Write(w, r, nil, apperrors.Unauthorized("", nil))
				return
			}

			rule, ok := rules[principal.PrincipalType()]
			if !ok {
				apperrors.Write(w, r, nil, apperrors.Forbidden(""))
				return
			}

			allowed, err := rule(r, principal)
			if err != nil {
				apperrors.Write(w, r, nil, err)
				return
			}
			if !allowed {
				apperrors.Write(w, r, nil, apperrors.Forbidden(""))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
