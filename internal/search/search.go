// Package search implements the Search provider adapter capability
// (spec 4.1): a uniform Result shape over multiple search back-ends,
// with a registry that fails over from a preferred provider to the
// rest in registration order.
package search

import (
	"context"
	"time"

	"briefly/internal/core"
	"briefly/internal/logger"
)

// Provider is the capability every search back-end implements.
type Provider interface {
	Search(ctx context.Context, query string, config Config) ([]Result, error)
	GetName() string
}

// Config holds per-request search parameters.
type Config struct {
	MaxResults int
	SinceTime  time.Duration
	Language   string
}

// Result is a unified search result shape across providers.
type Result struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Snippet      string    `json:"snippet"`
	Domain       string    `json:"domain"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	Source       string    `json:"source"`
	Rank         int       `json:"rank"`
	ProviderScore *float64 `json:"provider_score,omitempty"` // 0..1, if the provider supplies one
}

// Registry maps provider name to adapter, with a preferred provider
// attempted first and the rest tried in registration order on failure.
type Registry struct {
	preferred string
	order     []string
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its name, appending to the fallback order.
func (r *Registry) Register(p Provider) {
	name := p.GetName()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// SetPreferred designates which provider is attempted first.
func (r *Registry) SetPreferred(name string) {
	r.preferred = name
}

// Search tries the preferred provider, then the rest in registration
// order, returning the first success. It fails only if every provider fails.
func (r *Registry) Search(ctx context.Context, query string, config Config) ([]Result, string, error) {
	tried := make(map[string]bool)
	var names []string
	if r.preferred != "" {
		if _, ok := r.providers[r.preferred]; ok {
			names = append(names, r.preferred)
			tried[r.preferred] = true
		}
	}
	for _, name := range r.order {
		if !tried[name] {
			names = append(names, name)
			tried[name] = true
		}
	}

	var providerNames []string
	var causes []error
	for _, name := range names {
		provider := r.providers[name]
		results, err := provider.Search(ctx, query, config)
		if err != nil {
			logger.Warn("search provider failed", "provider", name, "error", err.Error())
			providerNames = append(providerNames, name)
			causes = append(causes, err)
			continue
		}
		return results, name, nil
	}

	return nil, "", &core.SearchFailure{Providers: providerNames, Causes: causes}
}

// Providers returns provider names in registration order.
func (r *Registry) Providers() []string {
	return append([]string{}, r.order...)
}

func extractDomain(hostname string) string {
	const wwwPrefix = "www."
	if len(hostname) > len(wwwPrefix) && hostname[:len(wwwPrefix)] == wwwPrefix {
		return hostname[len(wwwPrefix):]
	}
	return hostname
}
