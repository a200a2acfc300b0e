package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

func TestUserProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t, 15*time.Minute)
	defer app.Teardown(t)

	_, aliceAuth := registerUser(t, app, "alice")
	bob, _ := registerUser(t, app, "bob")

	// Any authenticated user can view a profile; the response never
	// carries password or refresh token material.
	resp := doJSON(t, bob, http.MethodGet, app.Server.URL+"/api/users/"+aliceAuth.User.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "password_hash")
	assert.NotContains(t, profile, "refresh_token_hash")
}

func TestUserUpdateRequiresSelf(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t, 15*time.Minute)
	defer app.Teardown(t)

	alice, aliceAuth := registerUser(t, app, "alice")
	bob, _ := registerUser(t, app, "bob")

	// Bob cannot update alice.
	resp := doJSON(t, bob, http.MethodPut, app.Server.URL+"/api/users/"+aliceAuth.User.ID, map[string]string{
		"username": "mallory",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Alice changes her own password; the new one works, the old one is gone.
	resp = doJSON(t, alice, http.MethodPut, app.Server.URL+"/api/users/"+aliceAuth.User.ID, map[string]string{
		"password": "new-s3cret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	login := newClient(t)
	resp = doJSON(t, login, http.MethodPost, app.Server.URL+"/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "new-s3cret-password",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, login, http.MethodPost, app.Server.URL+"/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
