package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/services"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, populated once by the gate and
// read by downstream handlers.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Username string
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Authenticator is the request gate. It verifies the access token
// statelessly (no database lookup) and attaches the caller's identity
// to the request context.
type Authenticator struct {
	issuer *services.TokenIssuer
}

func NewAuthenticator(issuer *services.TokenIssuer) *Authenticator {
	return &Authenticator{issuer: issuer}
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
			return
		}

		claims, err := a.issuer.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, CodeTokenExpired, "access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "invalid access token")
			return
		}

		identity := Identity{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSelf rejects requests whose {userId} route parameter does not
// match the authenticated identity. This backs the path-scoped routes,
// independent of the assignment checks done in the data layer.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
				return
			}

			pathID, err := uuid.Parse(chi.URLParam(r, param))
			if err != nil || pathID != identity.UserID {
				writeError(w, http.StatusForbidden, CodeForbidden, "you do not have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
