// ABOUTME: Tests for the OpenAI completion client against a fake HTTP endpoint
// ABOUTME: Verifies wire format, bearer auth and failure classification
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/confidant/internal/models"
)

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClientWithConfig(&ClientConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL + "/v1",
		ChatModel: "gpt-test",
	})
	require.NoError(t, err)
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	})
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDefaultConfig_Model(t *testing.T) {
	t.Setenv("CONFIDANT_OPENAI_MODEL", "")
	assert.Equal(t, DefaultChatModel, DefaultConfig("k").ChatModel)

	t.Setenv("CONFIDANT_OPENAI_MODEL", "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", DefaultConfig("k").ChatModel)
}

func TestComplete_WireFormat(t *testing.T) {
	var got wireRequest
	var auth, path string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeCompletion(w, "I'm here for you.")
	})

	resp, err := client.Complete(context.Background(), models.CompletionRequest{
		SystemContext:   []string{"persona", "resources"},
		UserText:        "I feel anxious",
		MaxOutputTokens: 1024,
		Temperature:     0,
	})
	require.NoError(t, err)

	assert.Equal(t, "I'm here for you.", resp.Text)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, wireMessage{Role: "system", Content: "persona"}, got.Messages[0])
	assert.Equal(t, wireMessage{Role: "system", Content: "resources"}, got.Messages[1])
	assert.Equal(t, wireMessage{Role: "user", Content: "I feel anxious"}, got.Messages[2])
}

func TestComplete_SystemOnly(t *testing.T) {
	var got wireRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeCompletion(w, "summary")
	})

	_, err := client.Complete(context.Background(), models.CompletionRequest{
		SystemContext:   []string{"Summarize the following conversation"},
		MaxOutputTokens: 500,
		Temperature:     0.7,
	})
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantError error
	}{
		{
			name: "api error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			},
			wantError: ErrNetworkFailure,
		},
		{
			name: "server error without json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			wantError: ErrNetworkFailure,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
			},
			wantError: ErrMalformedResponse,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeCompletion(w, "   ")
			},
			wantError: ErrMalformedResponse,
		},
		{
			name: "body is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices": [`))
			},
			wantError: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.Complete(context.Background(), models.CompletionRequest{
				UserText:        "hello",
				MaxOutputTokens: 16,
			})

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantError), "got %v, want %v", err, tt.wantError)
		})
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewOpenAIClientWithConfig(&ClientConfig{APIKey: "k", BaseURL: url + "/v1"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), models.CompletionRequest{UserText: "hi", MaxOutputTokens: 8})
	assert.True(t, IsNetworkFailure(err), "got %v", err)
	assert.False(t, IsMalformedResponse(err))
}

func TestComplete_NoRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), models.CompletionRequest{UserText: "hi", MaxOutputTokens: 8})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_InvalidRequestNeverDispatched(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeCompletion(w, "x")
	})

	_, err := client.Complete(context.Background(), models.CompletionRequest{UserText: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}
