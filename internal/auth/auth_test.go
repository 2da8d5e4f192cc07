package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/config"
)

func bypassAuth(t *testing.T) *Auth {
	t.Helper()
	cfg := &config.Config{Environment: "DEV"}
	cfg.Auth.DevModeBypass = true

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestDevBypassInjectsLocalUser(t *testing.T) {
	a := bypassAuth(t)

	var gotEmail string
	handler := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = r.Context().Value(UserEmailKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev@localhost", gotEmail)
}

func TestDevBypassLoginRedirectsHome(t *testing.T) {
	a := bypassAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	a.LoginHandler(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestNewRequiresCompleteConfigOutsideDev(t *testing.T) {
	cfg := &config.Config{Environment: "PROD"}

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	a := bypassAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	a.LogoutHandler(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "id_token", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGenerateState(t *testing.T) {
	s1, err := generateState()
	require.NoError(t, err)
	s2, err := generateState()
	require.NoError(t, err)

	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
}
