package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/api/internal/core/services"
)

func newTestGate(t *testing.T) (*Authenticator, *services.TokenIssuer) {
	t.Helper()
	issuer := services.NewTokenIssuer([]byte("test-secret"), 15*time.Minute)
	return NewAuthenticator(issuer), issuer
}

func gateRequest(t *testing.T, gate *Authenticator, decorate func(*http.Request)) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()

	var captured *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			captured = &identity
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	gate.RequireAuth(next).ServeHTTP(rec, req)
	return rec, captured
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestGateNoToken(t *testing.T) {
	gate, _ := newTestGate(t)

	rec, identity := gateRequest(t, gate, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNoToken, decodeErrorCode(t, rec))
	assert.Nil(t, identity)
}

func TestGateInvalidToken(t *testing.T) {
	gate, _ := newTestGate(t)

	rec, _ := gateRequest(t, gate, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "garbage"})
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, decodeErrorCode(t, rec))
}

func TestGateExpiredToken(t *testing.T) {
	gate, _ := newTestGate(t)

	expiredIssuer := services.NewTokenIssuer([]byte("test-secret"), -time.Minute)
	token, err := expiredIssuer.IssueAccessToken(uuid.New(), "alice@example.com", "alice")
	require.NoError(t, err)

	rec, _ := gateRequest(t, gate, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeTokenExpired, decodeErrorCode(t, rec))
}

func TestGateValidToken(t *testing.T) {
	gate, issuer := newTestGate(t)
	userID := uuid.New()

	token, err := issuer.IssueAccessToken(userID, "alice@example.com", "alice")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		rec, identity := gateRequest(t, gate, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, identity)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, "alice@example.com", identity.Email)
		assert.Equal(t, "alice", identity.Username)
	})

	t.Run("bearer header", func(t *testing.T) {
		rec, identity := gateRequest(t, gate, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, identity)
		assert.Equal(t, userID, identity.UserID)
	})
}

func TestRequireSelf(t *testing.T) {
	gate, issuer := newTestGate(t)
	userID := uuid.New()

	token, err := issuer.IssueAccessToken(userID, "alice@example.com", "alice")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)
		r.With(RequireSelf("userId")).Get("/users/{userId}/tasks", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	do := func(pathUserID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/"+pathUserID+"/tasks", nil)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(userID.String()).Code)

	other := do(uuid.NewString())
	assert.Equal(t, http.StatusForbidden, other.Code)
	assert.Equal(t, CodeForbidden, decodeErrorCode(t, other))

	malformed := do("not-a-uuid")
	assert.Equal(t, http.StatusForbidden, malformed.Code)
}
