// Package statetoken signs the short-lived state of an OAuth2 authorization round trip
// (state + PKCE verifier) into a cookie value, so the server keeps no per-login storage.
package statetoken

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// DefaultTTL bounds how long a user may stay on the provider's consent page.
const DefaultTTL = 5 * time.Minute

const issuer = "focoprod-oauth-state"

// ErrInvalidState is returned for tampered, expired or malformed state tokens.
var ErrInvalidState = errors.New("invalid oauth state")

// FlowState is the data carried from the authorization redirect to the callback.
type FlowState struct {
	Provider string
	State    string
	Verifier string
}

type flowClaims struct {
	Provider string `json:"prv"`
	State    string `json:"st"`
	Verifier string `json:"cv"`
	jwt.RegisteredClaims
}

// NewFlowState generates a fresh random state and PKCE verifier for provider.
func NewFlowState(provider string) (FlowState, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return FlowState{}, fmt.Errorf("failed to generate state: %w", err)
	}
	return FlowState{
		Provider: provider,
		State:    base64.RawURLEncoding.EncodeToString(b),
		Verifier: oauth2.GenerateVerifier(),
	}, nil
}

// Signer signs and verifies FlowState tokens with HS256.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a new Signer. A non-positive ttl falls back to DefaultTTL.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns the signed token for fs.
func (s *Signer) Sign(fs FlowState) (string, error) {
	now := s.now()
	claims := flowClaims{
		Provider: fs.Provider,
		State:    fs.State,
		Verifier: fs.Verifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the FlowState it carries.
func (s *Signer) Parse(token string) (FlowState, error) {
	var claims flowClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return FlowState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.State == "" || claims.Verifier == "" {
		return FlowState{}, fmt.Errorf("%w: missing state or verifier", ErrInvalidState)
	}
	return FlowState{
		Provider: claims.Provider,
		State:    claims.State,
		Verifier: claims.Verifier,
	}, nil
}
