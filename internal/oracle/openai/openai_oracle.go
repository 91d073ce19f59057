package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"smartsplit/internal/config"
	"smartsplit/internal/oracle"
	"smartsplit/internal/port"
)

const (
	defaultModel = "gpt-4o-mini"
	// fixed decoding parameters so repeated calls on identical input agree
	decodingSeed = 7
	maxTokens    = 20
)

func init() {
	oracle.RegisterProvider("openai", func(cfg *config.OracleProviderConfig) (port.ClassificationOracle, error) {
		return NewOracle(cfg), nil
	})
}

// Oracle implements port.ClassificationOracle using the OpenAI Chat Completions API.
type Oracle struct {
	apiKey string
	model  string
	client openai.Client
}

// NewOracle creates an OpenAI-backed oracle from a provider config.
func NewOracle(cfg *config.OracleProviderConfig) *Oracle {
	return newOracle(cfg, cfg.BaseURL)
}

// NewOracleWithEndpoint creates an oracle pointing at a custom API base URL (for testing).
func NewOracleWithEndpoint(cfg *config.OracleProviderConfig, baseURL string) *Oracle {
	return newOracle(cfg, baseURL)
}

func newOracle(cfg *config.OracleProviderConfig, baseURL string) *Oracle {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Oracle{
		apiKey: cfg.APIKey,
		model:  model,
		client: openai.NewClient(opts...),
	}
}

func (o *Oracle) Classify(ctx context.Context, text string, allowedLabels []string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("openai: %w", oracle.ErrUnavailable)
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(oracle.SystemPrompt),
			openai.UserMessage(oracle.BuildClassificationPrompt(text, allowedLabels)),
		},
		Temperature:         openai.Float(0),
		Seed:                openai.Int(decodingSeed),
		MaxCompletionTokens: openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = oracle.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return "", oracle.NewRateLimitError("openai", err, retryAfter)
		}
		return "", fmt.Errorf("calling openai API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return oracle.ParseLabel("openai", resp.Choices[0].Message.Content, allowedLabels)
}
