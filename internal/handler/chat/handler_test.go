package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/z-reception/backend/internal/model/ward"
	chatservice "github.com/zhouzirui/z-reception/backend/internal/service/chat"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	return setupRouterWithWards(t, ward.NewMemoryStore(ward.Seed()))
}

func setupRouterWithWards(t *testing.T, wards ward.Store) *chi.Mux {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine, err := intake.NewEngine(context.Background(), wards, nil, nil, intake.WithLogger(logger))
	require.NoError(t, err)

	handler := New(intake.NewService(chatservice.NewMemoryStore(), engine), logger)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.Route("/api", handler.RegisterAPIRoutes)
	return r
}

func postChat(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeResponse(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["response"]
}

func TestChatConversation(t *testing.T) {
	r := setupRouter(t)

	resp := postChat(t, r, `{"message": "hello there, i need to see a doctor", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Thank you for contacting the General Ward. May I please have your name?", decodeResponse(t, resp))

	resp = postChat(t, r, `{"message": "Alex", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, decodeResponse(t, resp), "Alex")

	resp = postChat(t, r, `{"message": "29", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, decodeResponse(t, resp), "General Ward")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var view map[string]any
	require.NoError(t, json.NewDecoder(got.Body).Decode(&view))
	assert.Equal(t, "s1", view["id"])
	assert.Equal(t, "Alex", view["name"])
	assert.Equal(t, float64(29), view["age"])
	assert.Equal(t, "hello there, i need to see a doctor", view["reason"])
	assert.Equal(t, "complete", view["stage"])
	assert.Equal(t, "general_ward", view["ward"])
	assert.Equal(t, true, view["completed"])
}

func TestChatDefaultsSessionID(t *testing.T) {
	r := setupRouter(t)

	resp := postChat(t, r, `{"message": "hi"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/default", nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestChatRejectsBadInput(t *testing.T) {
	r := setupRouter(t)

	for name, body := range map[string]string{
		"malformed": `{"message":`,
		"blank":     `{"message": "   "}`,
		"missing":   `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := postChat(t, r, body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestChatRejectsOversizedBody(t *testing.T) {
	r := setupRouter(t)

	body := `{"message": "` + strings.Repeat("a", 70<<10) + `"}`
	resp := postChat(t, r, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, resp.Body.String())
}

func TestChatHidesInternalErrors(t *testing.T) {
	r := setupRouterWithWards(t, ward.NewMemoryStore(nil))

	resp := postChat(t, r, `{"message": "I need a checkup", "session_id": "s1"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, resp.Body.String())
	assert.NotContains(t, resp.Body.String(), "ward")
	assert.NotContains(t, resp.Body.String(), "s1")
}

func TestGetSessionNotFound(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListSessions(t *testing.T) {
	r := setupRouter(t)
	postChat(t, r, `{"message": "hi", "session_id": "a"}`)
	postChat(t, r, `{"message": "hi", "session_id": "b"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var views []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, "need_name", views[0]["stage"])
}
