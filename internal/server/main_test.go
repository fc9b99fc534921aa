package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitstream/internal/config"
	"fitstream/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Str0ng!Pass"

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                     "test",
		Port:                    "0",
		JWTSecret:               "test-secret-that-is-long-enough-123",
		SessionTTLHours:         1,
		RateLimitDisabled:       true,
		ProfileDefaultName:      "Usuário",
		ProfileDefaultAvatarURL: "https://cdn.example.com/default.png",
		ProfileDefaultUnit:      "Zona Norte",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)

	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	return &testEnv{server: s, app: s.NewApp(), db: db, mr: mr}
}

// do sends a JSON request and decodes the JSON response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup registers a member over HTTP and returns their token.
func (e *testEnv) signup(t *testing.T, name, email string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	status := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": testPassword,
		"unit":     "Zona Sul",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
