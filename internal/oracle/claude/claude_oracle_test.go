package claude_test

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

	"smartsplit/internal/config"
	"smartsplit/internal/oracle"
	claude "smartsplit/internal/oracle/claude"
)

var allowed = []string{"email", "change_order", "other"}

func newTestOracle(serverURL, apiKey string) *claude.Oracle {
	cfg := &config.OracleProviderConfig{
		Provider:     "claude",
		APIKey:       apiKey,
		DefaultModel: "claude-3-5-haiku-20241022",
		TimeoutSecs:  5,
	}
	return claude.NewOracleWithEndpoint(cfg, serverURL)
}

func TestClaudeOracle_Classify_Success(t *testing.T) {
	responseBody := map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": `{"label": "change_order"}`},
		},
		"stop_reason": "end_turn",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request headers
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// Verify request body
		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-3-5-haiku-20241022", reqBody["model"])
		assert.Equal(t, float64(0), reqBody["temperature"])
		assert.Equal(t, oracle.SystemPrompt, reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		assert.Contains(t, msg["content"], "CHANGE ORDER NO. 3")

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	label, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "CHANGE ORDER NO. 3", allowed)
	require.NoError(t, err)
	assert.Equal(t, "change_order", label)
}

func TestClaudeOracle_Classify_BareLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": "Email"}},
		})
	}))
	defer server.Close()

	label, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "x", allowed)
	require.NoError(t, err)
	assert.Equal(t, "email", label)
}

func TestClaudeOracle_Classify_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "x", allowed)
	var rlErr *oracle.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, 30.0, rlErr.RetryAfter.Seconds())
}

func TestClaudeOracle_Classify_ServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "x", allowed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClaudeOracle_Classify_RetriesOnlyWhenConfigured(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": `{"label": "email"}`}},
		})
	}))
	defer server.Close()

	cfg := &config.OracleProviderConfig{Provider: "claude", APIKey: "k", TimeoutSecs: 5, MaxRetries: 1}
	label, err := claude.NewOracleWithEndpoint(cfg, server.URL).Classify(context.Background(), "x", allowed)
	require.NoError(t, err)
	assert.Equal(t, "email", label)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClaudeOracle_Classify_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "x", allowed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestClaudeOracle_Classify_MissingKey(t *testing.T) {
	_, err := newTestOracle("http://127.0.0.1:1", "").Classify(context.Background(), "x", allowed)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}
