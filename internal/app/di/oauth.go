package di

import (
	"context"
	"log/slog"
	"net/http"

	"focoprod_backend/internal/app/config"
	"focoprod_backend/internal/feature/auth/adapters/oidcprovider"
	authhandler "focoprod_backend/internal/feature/auth/transport/handler"
)

// NewProviderRegistry builds the federated login providers enabled in cfg.
// A provider whose discovery fails is skipped with an error log, so local accounts keep working.
func NewProviderRegistry(ctx context.Context, cfg config.Config, client *http.Client) *authhandler.ProviderRegistry {
	var providers []authhandler.IdentityProvider

	if cfg.Google.Enabled() {
		p, err := oidcprovider.New(ctx, oidcprovider.Config{
			Name:         "google",
			Issuer:       cfg.Google.Issuer,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes:       cfg.Google.Scopes,
		}, client)
		if err != nil {
			slog.Error("google login disabled", "error", err)
		} else {
			providers = append(providers, p)
		}
	} else {
		slog.Warn("GOOGLE_CLIENT_ID is not set; google login disabled")
	}

	return authhandler.NewProviderRegistry(providers...)
}
