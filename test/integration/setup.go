package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/taskhub/api/internal/adapters/handler/http"
	repo "github.com/taskhub/api/internal/adapters/repository/postgres"
	"github.com/taskhub/api/internal/core/services"
)

const (
	testJWTSecret  = "test-secret"
	testBcryptCost = 4
)

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T, accessTTL time.Duration) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db))

	userRepo := repo.NewUserRepository(db)
	taskRepo := repo.NewTaskRepository(db)

	issuer := services.NewTokenIssuer([]byte(testJWTSecret), accessTTL)
	authSvc := services.NewAuthService(userRepo, issuer, testBcryptCost)
	userSvc := services.NewUserService(userRepo, testBcryptCost)
	taskSvc := services.NewTaskService(taskRepo)

	cookies := handler.NewCookieManager(false, accessTTL, 7*24*time.Hour)
	gate := handler.NewAuthenticator(issuer)

	router := handler.NewHandler(
		handler.NewAuthHandler(authSvc, userSvc, cookies),
		handler.NewTaskHandler(taskSvc),
		handler.NewUserHandler(userSvc),
		gate,
	)

	return &TestApp{
		DB:          db,
		Server:      httptest.NewServer(router),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	t.Helper()
	app.Server.Close()
	require.NoError(t, app.DB.Close())
	require.NoError(t, app.DBContainer.Terminate(context.Background()))
}

// newClient returns an HTTP client with its own cookie jar, so each
// simulated user carries their own session cookies.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authPayload struct {
	User         userPayload `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

// registerUser creates a fresh user through the public API and returns
// a client holding their session cookies.
func registerUser(t *testing.T, app *TestApp, username string) (*http.Client, authPayload) {
	t.Helper()

	client := newClient(t)
	resp := doJSON(t, client, http.MethodPost, app.Server.URL+"/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return client, decodeBody[authPayload](t, resp)
}
