package openai_test

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
	openaioracle "smartsplit/internal/oracle/openai"
)

var allowed = []string{"email", "payment_application", "other"}

func newTestOracle(serverURL, apiKey string) *openaioracle.Oracle {
	cfg := &config.OracleProviderConfig{
		Provider:     "openai",
		APIKey:       apiKey,
		DefaultModel: "gpt-4o-mini",
		TimeoutSecs:  5,
	}
	return openaioracle.NewOracleWithEndpoint(cfg, serverURL+"/")
}

func completion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestOpenAIOracle_Classify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		assert.Equal(t, float64(0), reqBody["temperature"])
		assert.Equal(t, float64(7), reqBody["seed"])
		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"label": "email"}`))
	}))
	defer server.Close()

	label, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "From: a@x.com", allowed)
	require.NoError(t, err)
	assert.Equal(t, "email", label)
}

func TestOpenAIOracle_Classify_InvalidLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"label": "invoice"}`))
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "text", allowed)
	var invalid *oracle.InvalidLabelError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "openai", invalid.Provider)
}

func TestOpenAIOracle_Classify_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "test-api-key").Classify(context.Background(), "text", allowed)
	var rlErr *oracle.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, 15.0, rlErr.RetryAfter.Seconds())
}

func TestOpenAIOracle_Classify_MissingKeyMakesNoRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := newTestOracle(server.URL, "").Classify(context.Background(), "text", allowed)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestOpenAIOracle_Classify_ServerErrorIsOneRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	cfg, err := config.Load()
	require.NoError(t, err)
	pc := cfg.Oracle.Primary
	pc.Provider, pc.APIKey = "openai", "test-api-key"

	_, err = openaioracle.NewOracleWithEndpoint(&pc, server.URL+"/").Classify(context.Background(), "text", allowed)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
