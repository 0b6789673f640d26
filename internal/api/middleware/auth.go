package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"library_lending/internal/common"
	"library_lending/internal/common/security"
	"library_lending/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	IdentityCtxKey contextKey = "identity"
)

// AccessGate authenticates bearer tokens placed in the context by
// jwtauth.Verifier and authorizes admin-only routes against the user store.
type AccessGate struct {
	users   repository.UserRepository
	revoker security.TokenRevoker
}

func NewAccessGate(users repository.UserRepository, revoker security.TokenRevoker) *AccessGate {
	return &AccessGate{users: users, revoker: revoker}
}

func (g *AccessGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) || (err == nil && token == nil) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		identity, err := security.IdentityFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		revoked, err := g.revoker.IsRevoked(r.Context(), identity.TokenID)
		if err != nil {
			slog.Error("token revocation lookup failed", "error", err)
			common.RespondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if revoked {
			common.RespondWithError(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityCtxKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly must run after Authenticate. The role is read from the store on
// every request, so a demoted or deleted user loses access immediately.
func (g *AccessGate) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		user, err := g.users.FindByID(r.Context(), identity.UserID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			slog.Error("admin lookup failed", "user_id", identity.UserID, "error", err)
			common.RespondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err != nil || !user.IsAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetIdentityFromContext(ctx context.Context) (security.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(security.Identity)
	return identity, ok
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	identity, ok := GetIdentityFromContext(ctx)
	return identity.UserID, ok
}
