package oracle

import (
	"fmt"

	"smartsplit/internal/config"
	"smartsplit/internal/port"
)

// ProviderFactory is a function that creates a ClassificationOracle from a provider config.
type ProviderFactory func(cfg *config.OracleProviderConfig) (port.ClassificationOracle, error)

// registry of oracle provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an oracle provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewOracle creates a ClassificationOracle from a provider config using the registered factory.
func NewOracle(cfg *config.OracleProviderConfig) (port.ClassificationOracle, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// FromConfig builds the configured oracle chain. It returns nil when no
// provider is configured, in which case classification falls back locally.
// With two providers the result is a *Chain whose members keep their own
// timeouts.
func FromConfig(cfg *config.OracleConfig) (port.ClassificationOracle, error) {
	var members []Member
	for _, pc := range []*config.OracleProviderConfig{cfg.PrimaryConfig(), cfg.SecondaryConfig()} {
		if pc == nil {
			continue
		}
		o, err := NewOracle(pc)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: pc.Provider, Oracle: o, Timeout: pc.Timeout()})
	}
	switch len(members) {
	case 0:
		return nil, nil
	case 1:
		return members[0].Oracle, nil
	default:
		return NewChain(members...), nil
	}
}
