// Package schedule defines the core custody domain types: care providers,
// time blocks, and the in-memory block store.
package schedule

// Provider identifies a party who covers care during a block.
type Provider string

const (
	ProviderParentA Provider = "parent_a"
	ProviderParentB Provider = "parent_b"
	ProviderNanny   Provider = "nanny"
)

// Valid returns true if the provider is a known value.
func (p Provider) Valid() bool {
	switch p {
	case ProviderParentA, ProviderParentB, ProviderNanny:
		return true
	default:
		return false
	}
}

// IsPrimary returns true for the two guardians whose split defines the
// care balance. Third-party coverage is informational only.
func (p Provider) IsPrimary() bool {
	return p == ProviderParentA || p == ProviderParentB
}

// DisplayName returns the default human-facing name. Configured names
// (config.Providers) take precedence in the CLI.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderParentA:
		return "Parent A"
	case ProviderParentB:
		return "Parent B"
	case ProviderNanny:
		return "Nanny"
	default:
		return string(p)
	}
}

// ColorToken returns the identity token used by presentation layers.
// Core logic only relies on provider equality.
func (p Provider) ColorToken() string {
	switch p {
	case ProviderParentA:
		return "blue"
	case ProviderParentB:
		return "magenta"
	case ProviderNanny:
		return "green"
	default:
		return "white"
	}
}

// PrimaryProviders returns the two guardians, in balance order.
func PrimaryProviders() []Provider {
	return []Provider{ProviderParentA, ProviderParentB}
}

// ParseProvider parses a provider token.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", ErrInvalidProvider
	}
	return p, nil
}
