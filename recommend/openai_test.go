package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/core"
)

func chatCompletionResponse(content string) chatResponse {
	var resp chatResponse
	resp.Choices = []struct {
		Message chatMessage `json:"message"`
	}{
		{Message: chatMessage{Role: "assistant", Content: content}},
	}
	return resp
}

func TestHTTPBackendGenerate(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.NewEncoder(w).Encode(chatCompletionResponse("## Analysis\nLooks bad.")))
	}))
	defer server.Close()

	backend := NewHTTPBackend(&HTTPBackendConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		RequestsPerSec: 1000,
	})

	out, err := backend.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "## Analysis\nLooks bad.", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "summarize this", gotReq.Messages[1].Content)
}

func TestHTTPBackendRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	backend := NewHTTPBackend(&HTTPBackendConfig{BaseURL: server.URL, RequestsPerSec: 1000})

	_, err := backend.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, core.ErrGenerationRateLimited)
}

func TestHTTPBackendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	backend := NewHTTPBackend(&HTTPBackendConfig{
		BaseURL:        server.URL,
		Timeout:        50 * time.Millisecond,
		RequestsPerSec: 1000,
	})

	_, err := backend.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, core.ErrGenerationTimeout)
}

func TestHTTPBackendUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	backend := NewHTTPBackend(&HTTPBackendConfig{BaseURL: server.URL, RequestsPerSec: 1000})

	_, err := backend.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
	assert.NotErrorIs(t, err, core.ErrGenerationRateLimited)
}

func TestHTTPBackendResponseSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	backend := NewHTTPBackend(&HTTPBackendConfig{
		BaseURL:          server.URL,
		MaxResponseBytes: 1024,
		RequestsPerSec:   1000,
	})

	_, err := backend.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded limit")
}
