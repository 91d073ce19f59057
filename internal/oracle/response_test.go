package oracle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsplit/internal/oracle"
)

var allowed = []string{"email", "change_order", "rfi", "other"}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json object", `{"label": "email"}`, "email"},
		{"json with whitespace", "  {\"label\":\"rfi\"}\n", "rfi"},
		{"code fence", "```json\n{\"label\": \"change_order\"}\n```", "change_order"},
		{"bare label", "email", "email"},
		{"bare label upper with spaces", "Change Order", "change_order"},
		{"quoted bare label", `"rfi".`, "rfi"},
		{"hyphenated", `{"label": "change-order"}`, "change_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oracle.ParseLabel("test", tt.raw, allowed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLabel_OutsideEnumeration(t *testing.T) {
	for _, raw := range []string{`{"label": "invoice"}`, "invoice", `{"category": "email"}`, `{"label": 3}`, ""} {
		_, err := oracle.ParseLabel("test", raw, allowed)
		require.Error(t, err, raw)
		var invalid *oracle.InvalidLabelError
		assert.True(t, errors.As(err, &invalid), raw)
		assert.Equal(t, "test", invalid.Provider)
	}
}

func TestBuildClassificationPrompt(t *testing.T) {
	p := oracle.BuildClassificationPrompt("CHANGE ORDER NO. 3", allowed)
	assert.Contains(t, p, "email, change_order, rfi, other")
	assert.Contains(t, p, "CHANGE ORDER NO. 3")
}

func TestRateLimitError(t *testing.T) {
	base := errors.New("status 429")
	err := oracle.NewRateLimitError("openai", base, 0)
	assert.Equal(t, "openai", err.Provider)
	assert.Equal(t, 60.0, err.RetryAfter.Seconds())
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "openai rate limited")

	assert.Equal(t, 30, oracle.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, oracle.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, oracle.ParseRetryAfterHeader("soon"))
}
