package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// sessionIDBytes is the entropy of a session ID (256 bits).
const sessionIDBytes = 32

// SessionMeta describes the client opening a session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// SessionUsecase opens, resolves and closes browser sessions.
type SessionUsecase struct {
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionUsecase creates a new SessionUsecase issuing sessions valid for ttl.
func NewSessionUsecase(sessions SessionRepository, ttl time.Duration) *SessionUsecase {
	return &SessionUsecase{
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start opens a session for the user.
func (u *SessionUsecase) Start(ctx context.Context, user *entity.User, meta SessionMeta) (*entity.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := u.now()
	session := &entity.Session{
		ID:        id,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Provider:  user.Provider,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Authenticate resolves a session ID into a live session.
// Expired sessions are deleted and reported as ErrSessionExpired.
func (u *SessionUsecase) Authenticate(ctx context.Context, id string) (*entity.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	session, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.IsExpiredAt(u.now()) {
		if err := u.sessions.Delete(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

// End invalidates a session. Ending an unknown session is a no-op.
func (u *SessionUsecase) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := u.sessions.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
