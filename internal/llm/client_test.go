package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
)

func newTestClient(t *testing.T, url string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: url, APIKey: "test-key", Model: "llama3-8b-8192", Timeout: 2 * time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewClient(cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	return c
}

func completionBody(content string) string {
	b, _ := json.Marshal(ChatResponse{
		ID:      "chatcmpl-1",
		Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
	})
	return string(b)
}

func TestClient_Complete_SendsSingleUserMessage(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("OK report")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/", nil)
	out, err := c.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "OK report", out)

	assert.Equal(t, "llama3-8b-8192", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "the prompt", got.Messages[0].Content)
}

func TestClient_Complete_EmptyResponses(t *testing.T) {
	bodies := map[string]string{
		"whitespace": completionBody("  \n\t "),
		"empty":      completionBody(""),
		"no choices": `{"id":"x","choices":[]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, func(cfg *Config) { cfg.MaxRetries = 3 })
			out, err := c.Complete(context.Background(), "p")
			require.Error(t, err)
			assert.Empty(t, out)
			assert.True(t, stderrors.Is(err, apperrors.ErrEmptyResponse))
			assert.True(t, stderrors.Is(err, apperrors.ErrAPI))
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "empty responses are not retried")
		})
	}
}

func TestClient_Complete_NoRetryByDefault(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAPIError, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Complete_RetriesTransientFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(completionBody("third time lucky")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.MaxRetries = 2 })
	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_Complete_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.MaxRetries = 3 })
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrAPI))
	assert.False(t, stderrors.Is(err, apperrors.ErrEmptyResponse))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Complete_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
	start := time.Now()
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAPIError, apperrors.CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost", Model: "m"}, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrAPI))
	assert.Contains(t, err.Error(), "API key")

	_, err = NewClient(Config{BaseURL: "http://localhost", APIKey: "k"}, logger.NewNoOpLogger())
	assert.ErrorContains(t, err, "model name")
}
