package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focoprod_backend/internal/feature/auth/domain/entity"
	"focoprod_backend/internal/feature/auth/transport/http/dto"
	"focoprod_backend/internal/feature/auth/usecase"
	"focoprod_backend/internal/platform/session"
	"focoprod_backend/internal/platform/statetoken"
)

// StateCookieName carries the signed state of an in-flight authorization round trip.
const StateCookieName = "oauth_state"

// Reconciler maps a verified federated identity onto a local user.
type Reconciler interface {
	Reconcile(ctx context.Context, provider string, identity entity.Identity) (usecase.ReconcileOutcome, *entity.User, error)
}

// StateSigner signs and verifies the authorization round-trip state.
type StateSigner interface {
	Sign(fs statetoken.FlowState) (string, error)
	Parse(token string) (statetoken.FlowState, error)
	TTL() time.Duration
}

// OAuthConfig holds the redirect targets and cookie settings of the federated flow.
type OAuthConfig struct {
	SuccessRedirectURL string
	FailureRedirectURL string
	SessionCookie      session.CookieOptions
}

// OAuthHandler drives the browser side of federated login.
type OAuthHandler struct {
	providers  *ProviderRegistry
	reconciler Reconciler
	sessions   SessionManager
	state      StateSigner
	cfg        OAuthConfig
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(providers *ProviderRegistry, reconciler Reconciler, sessions SessionManager,
	state StateSigner, cfg OAuthConfig) *OAuthHandler {
	return &OAuthHandler{
		providers:  providers,
		reconciler: reconciler,
		sessions:   sessions,
		state:      state,
		cfg:        cfg,
	}
}

// Authorize handles GET /oauth2/authorization/:provider.
// It stores the signed state and PKCE verifier in a short-lived cookie and redirects to the consent page.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	name := c.Param("provider")
	p, ok := h.providers.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown provider"})
		return
	}

	fs, err := statetoken.NewFlowState(p.Name())
	if err != nil {
		slog.Error("failed to create oauth state", "error", err, "provider", name)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	token, err := h.state.Sign(fs)
	if err != nil {
		slog.Error("failed to sign oauth state", "error", err, "provider", name)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	h.setStateCookie(c, token, int(h.state.TTL().Seconds()))
	c.Redirect(http.StatusFound, p.AuthCodeURL(fs.State, fs.Verifier))
}

// Callback handles GET /login/oauth2/code/:provider.
//
//   - failed handshake (state mismatch, provider error, exchange failure): redirect to the failure URL
//   - no email claim: nothing is stored, redirect to the failure URL
//   - otherwise: reconcile, open a session, redirect to the success URL
func (h *OAuthHandler) Callback(c *gin.Context) {
	name := c.Param("provider")
	ctx := c.Request.Context()

	p, ok := h.providers.Get(name)
	if !ok {
		slog.Warn("oauth callback for unknown provider", "provider", name)
		h.fail(c)
		return
	}

	raw, _ := c.Cookie(StateCookieName)
	// single use
	h.setStateCookie(c, "", -1)

	if e := c.Query("error"); e != "" {
		slog.Warn("oauth provider returned an error", "provider", name, "error", e)
		h.fail(c)
		return
	}

	fs, err := h.state.Parse(raw)
	if err != nil || fs.Provider != name || fs.State == "" || fs.State != c.Query("state") {
		slog.Warn("oauth state check failed", "provider", name, "error", err, "remote_addr", c.ClientIP())
		h.fail(c)
		return
	}

	code := c.Query("code")
	if code == "" {
		slog.Warn("oauth callback without code", "provider", name)
		h.fail(c)
		return
	}

	identity, err := p.Exchange(ctx, code, fs.Verifier)
	if err != nil {
		slog.Warn("oauth code exchange failed", "provider", name, "error", err)
		h.fail(c)
		return
	}

	outcome, user, err := h.reconciler.Reconcile(ctx, name, identity)
	if err != nil {
		slog.Error("reconcile failed", "provider", name, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	if outcome == usecase.OutcomeSkipped {
		slog.Info("federated login without email, skipping", "provider", name, "subject", identity.Subject)
		h.fail(c)
		return
	}
	slog.Info("federated login reconciled", "provider", name, "outcome", outcome.String(), "user_id", user.ID)

	if !startSession(c, h.sessions, h.cfg.SessionCookie, user) {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "session error"})
		return
	}
	c.Redirect(http.StatusFound, h.cfg.SuccessRedirectURL)
}

func (h *OAuthHandler) fail(c *gin.Context) {
	c.Redirect(http.StatusFound, h.cfg.FailureRedirectURL)
}

func (h *OAuthHandler) setStateCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SessionCookie.Secure,
		// Lax so the cookie survives the top-level redirect back from the provider
		SameSite: http.SameSiteLaxMode,
	})
}
