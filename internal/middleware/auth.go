package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/auth"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
)

type contextKey struct{}

// Identity is the authenticated caller
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Role     models.Role
	AgencyID *uuid.UUID
}

// HasRole reports whether the caller holds one of roles
func (id *Identity) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom returns the caller set by RequireAuth, or nil
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// RequireAuth validates the bearer access token and stores the caller in the request context
func RequireAuth(jwt *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Authorization required")
				return
			}

			claims, err := jwt.Parse(token, auth.PurposeAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, string(apperr.KindUnauthorized), apperr.MessageOf(err))
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Invalid token")
				return
			}

			id := &Identity{UserID: userID, Email: claims.Email, Role: claims.Role}
			if claims.AgencyID != "" {
				if agencyID, err := uuid.Parse(claims.AgencyID); err == nil {
					id.AgencyID = &agencyID
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRoles admits callers holding one of roles. It must run after RequireAuth.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil {
				writeError(w, http.StatusUnauthorized, string(apperr.KindUnauthorized), "Authorization required")
				return
			}
			if !id.HasRole(roles...) {
				writeError(w, http.StatusForbidden, string(apperr.KindForbidden), "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes the same envelope the handlers use
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
		"error":   kind,
	})
}
