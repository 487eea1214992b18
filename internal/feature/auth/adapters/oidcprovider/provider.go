// Package oidcprovider adapts an OpenID Connect issuer (Google by default) to the auth feature.
// It performs the code exchange and ID token verification and returns identity facts only;
// user creation, linking and sessions are decided by the caller.
package oidcprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// GoogleIssuer is the issuer URL of Google's OpenID Connect provider.
const GoogleIssuer = "https://accounts.google.com"

// Config holds the registration of one OIDC client.
type Config struct {
	// Name is the registration id used in the /oauth2/authorization/:provider path and stored as User.Provider.
	Name         string
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Scopes defaults to openid, profile and email.
	Scopes []string
}

// Provider is a configured OIDC client.
type Provider struct {
	name     string
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	client   *http.Client
}

type claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// New discovers the issuer and builds the provider. client is used for discovery, key fetches and
// the token exchange; nil means http.DefaultClient.
func New(ctx context.Context, cfg Config, client *http.Client) (*Provider, error) {
	if cfg.Name == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oidc provider config missing required fields")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = GoogleIssuer
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	if client == nil {
		client = http.DefaultClient
	}

	op, err := oidc.NewProvider(oidc.ClientContext(ctx, client), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s oidc provider: %w", cfg.Name, err)
	}

	return &Provider{
		name: cfg.Name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     op.Endpoint(),
			Scopes:       scopes,
		},
		verifier: op.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		client:   client,
	}, nil
}

// Name returns the registration id.
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL builds the consent page URL with the S256 PKCE challenge of verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for tokens, verifies the ID token and returns its claims.
// A missing email claim is not an error here: the identity comes back with an empty Email.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (entity.Identity, error) {
	ctx = oidc.ClientContext(ctx, p.client)

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return entity.Identity{}, fmt.Errorf("%s did not return id_token", p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%s id_token verification failed: %w", p.name, err)
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		return entity.Identity{}, fmt.Errorf("%s id_token claims parse failed: %w", p.name, err)
	}

	return entity.Identity{
		Subject:       c.Subject,
		Email:         c.Email,
		Name:          c.Name,
		EmailVerified: c.EmailVerified,
	}, nil
}
