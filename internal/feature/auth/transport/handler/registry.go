package handler

import (
	"context"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// IdentityProvider is one federated login provider. Implementations return identity
// facts only and must not create users or sessions.
type IdentityProvider interface {
	// Name returns the registration id (e.g. "google").
	Name() string
	// AuthCodeURL returns the consent page URL carrying state and the PKCE challenge of verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange trades the authorization code for the verified identity claims.
	Exchange(ctx context.Context, code, verifier string) (entity.Identity, error)
}

// ProviderRegistry holds the configured providers by name.
type ProviderRegistry struct {
	providers map[string]IdentityProvider
}

// NewProviderRegistry registers the given providers by name. Later duplicates win.
func NewProviderRegistry(list ...IdentityProvider) *ProviderRegistry {
	m := make(map[string]IdentityProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &ProviderRegistry{providers: m}
}

// Get returns the provider registered under name.
func (r *ProviderRegistry) Get(name string) (IdentityProvider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Len returns the number of registered providers.
func (r *ProviderRegistry) Len() int {
	return len(r.providers)
}
