package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

var rec = intake.Record{Name: "John", Age: 29, Reason: "I have chest pain", Category: intent.Emergency}

func TestWebhookPostsRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)
	require.NoError(t, hook.Notify(context.Background(), rec))

	assert.Equal(t, map[string]any{
		"patient_name":  "John",
		"patient_age":   float64(29),
		"patient_query": "I have chest pain",
		"ward":          "emergency_ward",
	}, got)
}

func TestWebhookNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	hook, err := NewWebhook(srv.URL, time.Second)
	require.NoError(t, err)

	err = hook.Notify(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	hook, err := NewWebhook(srv.URL, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = hook.Notify(ctx, rec)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewSelectsNotifier(t *testing.T) {
	n, err := New(config.NotifierConfig{})
	require.NoError(t, err)
	assert.ErrorIs(t, n.Notify(context.Background(), rec), ErrNotConfigured)

	n, err = New(config.NotifierConfig{WebhookURL: "http://127.0.0.1:1/hook", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &Webhook{}, n)
}
