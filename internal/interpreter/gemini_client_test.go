package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/browser"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewGeminiClient(Config{
		Endpoint:   srv.URL,
		APIKey:     "test-key",
		Model:      "gemini-test",
		Timeout:    5 * time.Second,
		MaxElapsed: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, srv
}

func modelResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGeminiClient_InterpretValidPlan(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Write([]byte(modelResponse(`[
			{"action": "navigate", "url": "/preferences"},
			{"action": "set_radio", "value": "OPT_IN"},
			{"action": "screenshot"}
		]`)))
	})

	plan, err := client.Interpret(context.Background(), "opt me in", "http://localhost:3000")
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, browser.ActionNavigate, plan[0].Kind)
	assert.Equal(t, "http://localhost:3000/preferences", plan[0].URL)
	assert.Equal(t, "OPT_IN", plan[1].Value)
	assert.Equal(t, browser.ActionScreenshot, plan[2].Kind)
}

func TestGeminiClient_EmptyPlan(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("[]")))
	})

	plan, err := client.Interpret(context.Background(), "do nothing", "http://localhost:3000")
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestGeminiClient_MarkdownWrappedPlan(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("```json\n[{\"action\": \"screenshot\"}]\n```")))
	})

	plan, err := client.Interpret(context.Background(), "screenshot please", "http://localhost:3000")
	require.NoError(t, err)
	require.Len(t, plan, 1)
}

func TestGeminiClient_MalformedPlanFailsInterpretation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("I cannot help with that.")))
	})

	_, err := client.Interpret(context.Background(), "nonsense", "http://localhost:3000")
	assert.ErrorIs(t, err, ErrInterpretationFailed)
}

func TestGeminiClient_UnsupportedActionFailsInterpretation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(`[{"action": "launch_rocket"}]`)))
	})

	_, err := client.Interpret(context.Background(), "launch", "http://localhost:3000")
	assert.ErrorIs(t, err, ErrInterpretationFailed)
}

func TestGeminiClient_RetriesTransientErrors(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(modelResponse("[]")))
	})

	_, err := client.Interpret(context.Background(), "retry me", "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGeminiClient_PermanentErrorDoesNotRetry(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Interpret(context.Background(), "bad request", "http://localhost:3000")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestParsePlan_RejectsIncompleteSteps(t *testing.T) {
	_, err := parsePlan(`[{"action": "fill", "value": "Ada"}]`, "http://localhost:3000")
	assert.ErrorIs(t, err, ErrInterpretationFailed)

	_, err = parsePlan(`[{"action": "navigate"}]`, "http://localhost:3000")
	assert.ErrorIs(t, err, ErrInterpretationFailed)
}
