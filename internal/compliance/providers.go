package compliance

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultProvidersYAML string

// Provider describes a domain family whose agreements are published at
// provider-specific locations, optionally with a pinned fallback document
type Provider struct {
	// Name identifies the provider in logs and audit details
	Name string `yaml:"name"`
	// Domains are exact domain keys belonging to the provider
	Domains []string `yaml:"domains"`
	// Labels match any domain whose first label equals one of them
	Labels []string `yaml:"labels"`
	// Paths are probed before the generic path list
	Paths []string `yaml:"paths"`
	// CanonicalURL is tried once after every path has failed
	CanonicalURL string `yaml:"canonical_url"`
	// FallbackText is returned as the agreement when the canonical URL also fails
	FallbackText string `yaml:"fallback_text"`
}

// Matches reports whether the domain key belongs to the provider
func (p Provider) Matches(domain string) bool {
	domain = strings.ToLower(domain)

	if slices.Contains(p.Domains, domain) {
		return true
	}

	first, _, _ := strings.Cut(domain, ".")

	return slices.Contains(p.Labels, first)
}

type providerTable struct {
	Providers []Provider `yaml:"providers"`
}

// LoadProviders parses a provider table from YAML
func LoadProviders(r io.Reader) ([]Provider, error) {
	var table providerTable

	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviders, err)
	}

	for i, p := range table.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: provider %d has no name", ErrInvalidProviders, i)
		}
	}

	return table.Providers, nil
}

// LoadProvidersFile parses a provider table from a YAML file on disk
func LoadProvidersFile(path string) ([]Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviders, err)
	}
	defer f.Close() //nolint:errcheck // read-only file close error is non-critical

	return LoadProviders(f)
}

// DefaultProviders returns the bundled provider table
func DefaultProviders() []Provider {
	providers, err := LoadProviders(strings.NewReader(defaultProvidersYAML))
	if err != nil {
		panic(err)
	}

	return providers
}

// matchProvider returns the first provider the domain belongs to
func matchProvider(providers []Provider, domain string) (Provider, bool) {
	for _, p := range providers {
		if p.Matches(domain) {
			return p, true
		}
	}

	return Provider{}, false
}
