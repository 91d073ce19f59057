package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsplit/internal/config"
	"smartsplit/internal/oracle"
	"smartsplit/internal/port"
)

type staticOracle string

func (s staticOracle) Classify(context.Context, string, []string) (string, error) {
	return string(s), nil
}

func TestNewOracle_UnknownProvider(t *testing.T) {
	_, err := oracle.NewOracle(&config.OracleProviderConfig{Provider: "nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown oracle provider")
}

func TestFromConfig(t *testing.T) {
	oracle.RegisterProvider("static-a", func(*config.OracleProviderConfig) (port.ClassificationOracle, error) {
		return staticOracle("email"), nil
	})
	oracle.RegisterProvider("static-b", func(*config.OracleProviderConfig) (port.ClassificationOracle, error) {
		return staticOracle("rfi"), nil
	})

	none, err := oracle.FromConfig(&config.OracleConfig{})
	require.NoError(t, err)
	assert.Nil(t, none)

	single, err := oracle.FromConfig(&config.OracleConfig{Primary: config.OracleProviderConfig{Provider: "static-a"}})
	require.NoError(t, err)
	assert.Equal(t, staticOracle("email"), single)

	chain, err := oracle.FromConfig(&config.OracleConfig{
		Primary:   config.OracleProviderConfig{Provider: "static-a"},
		Secondary: config.OracleProviderConfig{Provider: "static-b"},
	})
	require.NoError(t, err)
	c, ok := chain.(*oracle.Chain)
	require.True(t, ok)
	assert.Equal(t, []string{"static-a", "static-b"}, c.Members())
	label, err := chain.Classify(context.Background(), "x", allowed)
	require.NoError(t, err)
	assert.Equal(t, "email", label)

	_, err = oracle.FromConfig(&config.OracleConfig{Primary: config.OracleProviderConfig{Provider: "missing"}})
	assert.Error(t, err)
}
