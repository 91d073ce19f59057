package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"smartsplit/internal/config"
	"smartsplit/internal/oracle"
	"smartsplit/internal/port"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

func init() {
	oracle.RegisterProvider("claude", func(cfg *config.OracleProviderConfig) (port.ClassificationOracle, error) {
		return NewOracle(cfg), nil
	})
}

// Oracle implements port.ClassificationOracle using the Anthropic Messages API.
type Oracle struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries int // extra attempts after a 5xx or transport failure
	client     *http.Client
}

// NewOracle creates a Claude-based oracle from a provider config.
func NewOracle(cfg *config.OracleProviderConfig) *Oracle {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	return newOracle(cfg, endpoint)
}

// NewOracleWithEndpoint creates an oracle pointing at a custom API endpoint (for testing).
func NewOracleWithEndpoint(cfg *config.OracleProviderConfig, endpoint string) *Oracle {
	return newOracle(cfg, endpoint)
}

func newOracle(cfg *config.OracleProviderConfig, endpoint string) *Oracle {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &Oracle{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		maxRetries: max(cfg.MaxRetries, 0),
		client:     &http.Client{Timeout: cfg.Timeout()},
	}
}

func (o *Oracle) Classify(ctx context.Context, text string, allowedLabels []string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("claude: %w", oracle.ErrUnavailable)
	}

	reqBody := map[string]interface{}{
		"model":       o.model,
		"max_tokens":  20,
		"temperature": 0,
		"system":      oracle.SystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": oracle.BuildClassificationPrompt(text, allowedLabels),
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var respBody []byte
	for attempt := 0; ; attempt++ {
		var retryable bool
		respBody, retryable, err = o.send(ctx, bodyBytes)
		if err == nil {
			break
		}
		if !retryable || attempt >= o.maxRetries || ctx.Err() != nil {
			return "", err
		}
	}

	return parseResponse(respBody, allowedLabels)
}

// send makes one request. retryable reports a failure worth another attempt.
func (o *Oracle) send(ctx context.Context, body []byte) (respBody []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", o.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := oracle.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, false, oracle.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return nil, resp.StatusCode >= 500, baseErr
	}
	return respBody, false, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, allowedLabels []string) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return oracle.ParseLabel("claude", resp.Content[0].Text, allowedLabels)
}
