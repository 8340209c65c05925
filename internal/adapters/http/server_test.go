package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/petsaude/iasys/internal/adapters/http"
	"github.com/petsaude/iasys/pkg/domain"
)

// fakeAssistant is a canned transport-level double.
type fakeAssistant struct {
	replies []string
	history []domain.ChatMessage
	err     error

	gotSessionID string
	gotMessage   string
}

func (f *fakeAssistant) Handle(_ context.Context, sessionID, message string) (string, []string, error) {
	f.gotSessionID = sessionID
	f.gotMessage = message
	if sessionID == "" {
		sessionID = "generated-id"
	}
	return sessionID, f.replies, f.err
}

func (f *fakeAssistant) History(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	return f.history, f.err
}

func (f *fakeAssistant) EndSession(_ context.Context, sessionID string) error {
	return f.err
}

func TestChat(t *testing.T) {
	fake := &fakeAssistant{replies: []string{"olá", "qual seu nome?"}}
	handler := httpAdapter.NewHandler(fake)

	body := strings.NewReader(`{"session_id": "abc", "message": "oi"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", fake.gotSessionID)
	assert.Equal(t, "oi", fake.gotMessage)

	var resp struct {
		SessionID string   `json:"session_id"`
		Replies   []string `json:"replies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SessionID)
	assert.Equal(t, []string{"olá", "qual seu nome?"}, resp.Replies)
}

func TestChat_MintsSessionID(t *testing.T) {
	fake := &fakeAssistant{replies: []string{"olá"}}
	handler := httpAdapter.NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "oi"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "generated-id", resp.SessionID)
}

func TestChat_InvalidBody(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_AssistantError(t *testing.T) {
	fake := &fakeAssistant{err: errors.New("boom")}
	handler := httpAdapter.NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message": "oi"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChat_EmptyRepliesIsEmptyArray(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "abc", "message": "?"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id": "abc", "replies": []}`, rec.Body.String())
}

func TestHistory(t *testing.T) {
	fake := &fakeAssistant{history: []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "oi"},
		{Role: domain.RoleAssistant, Content: "olá"},
	}}
	handler := httpAdapter.NewHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
}

func TestEndSession(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEndSession_NotFound(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{err: domain.ErrSessionNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/ghost", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	handler := httpAdapter.NewHandler(&fakeAssistant{}, httpAdapter.WithGatherer(registry))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint_AbsentWithoutGatherer(t *testing.T) {
	handler := httpAdapter.NewHandler(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
