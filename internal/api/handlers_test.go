package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/artifacts"
	"mhmd-mcp/backend/internal/browser"
	"mhmd-mcp/backend/internal/dispatch"
	"mhmd-mcp/backend/internal/interpreter"
	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/internal/services"
	"mhmd-mcp/backend/pkg/models"
)

type stubPage struct{}

func (stubPage) Perform(ctx context.Context, action browser.Action) browser.Outcome {
	out := browser.Outcome{OK: true, Detail: action.Describe()}
	if action.Kind == browser.ActionScreenshot {
		out.Artifact = []byte("png")
	}
	return out
}

func (stubPage) Close() {}

type stubExecutor struct{}

func (stubExecutor) NewPage(ctx context.Context) (browser.Page, error) { return stubPage{}, nil }

type stubInterpreter struct{}

func (stubInterpreter) Interpret(ctx context.Context, command, baseURL string) (interpreter.Plan, error) {
	return interpreter.Plan{}, nil
}

func newTestServer(t *testing.T) (*Server, *echo.Echo) {
	t.Helper()

	store, err := repository.NewJSONProfileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	dispatcher := dispatch.New(store, stubExecutor{}, stubInterpreter{},
		artifacts.NewSaver(t.TempDir(), zap.NewNop()), zap.NewNop(),
		dispatch.Options{Timeout: 5 * time.Second})

	s := NewServer(dispatcher, services.NewProfileService(store))

	e := echo.New()
	e.GET("/api/health", s.HandleHealth)
	e.POST("/mcp/call", s.HandleCall)
	e.GET("/mcp/tools", s.HandleListTools)
	e.GET("/api/user", s.HandleGetProfile)
	e.POST("/api/user", s.HandlePutProfile)
	e.PATCH("/api/user", s.HandlePatchProfile)
	e.DELETE("/api/user", s.HandleDeleteProfile)
	return s, e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	_, e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "mhmd-mcp", status.Service)
}

func TestHandleListTools(t *testing.T) {
	_, e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/mcp/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool                `json:"success"`
		Data    []models.MethodInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	names := make([]string, 0, len(env.Data))
	for _, info := range env.Data {
		names = append(names, info.Name)
	}
	assert.Contains(t, names, "run_preference_toggle")
	assert.Contains(t, names, "run_free_text_command")
}

func TestHandleCall(t *testing.T) {
	_, e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/mcp/call",
		`{"method":"echo","params":{"message":"hi"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	rec = doJSON(e, http.MethodPost, "/mcp/call", `{"method":"nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "MethodNotFound")

	rec = doJSON(e, http.MethodPost, "/mcp/call", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileCRUD(t *testing.T) {
	_, e := newTestServer(t)

	// Empty store reads as the default profile.
	rec := doJSON(e, http.MethodGet, "/api/user", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, models.PreferenceOptOut, resp.Data.Preference)

	// Full replace.
	rec = doJSON(e, http.MethodPost, "/api/user",
		`{"name":"Ada","email":"ada@example.com","mhmd_preference":"OPT_IN"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Partial update keeps the other fields.
	rec = doJSON(e, http.MethodPatch, "/api/user", `{"email":"ada@newmail.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ada", resp.Data.Name)
	assert.Equal(t, "ada@newmail.com", resp.Data.Email)
	assert.Equal(t, models.PreferenceOptIn, resp.Data.Preference)

	// Invalid preference is rejected.
	rec = doJSON(e, http.MethodPost, "/api/user",
		`{"name":"Ada","email":"ada@example.com","mhmd_preference":"MAYBE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete resets to default, twice.
	for i := 0; i < 2; i++ {
		rec = doJSON(e, http.MethodDelete, "/api/user", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/api/user", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.PreferenceOptOut, resp.Data.Preference)
	assert.Empty(t, resp.Data.Name)
}
