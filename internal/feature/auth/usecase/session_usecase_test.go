package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

func newTestSessionUsecase(repo SessionRepository, now time.Time) *SessionUsecase {
	uc := NewSessionUsecase(repo, time.Hour)
	uc.now = func() time.Time { return now }
	return uc
}

func TestSessionUsecase_Start(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newMockSessionRepository()
	uc := newTestSessionUsecase(repo, now)
	user := &entity.User{ID: 7, Email: "ana@example.com", Name: "Ana", Provider: "google"}

	s, err := uc.Start(context.Background(), user, SessionMeta{UserAgent: "test-agent", IPAddress: "10.0.0.1"})

	require.NoError(t, err)
	assert.Len(t, s.ID, 43, "32 random bytes, base64url without padding")
	assert.Equal(t, uint(7), s.UserID)
	assert.Equal(t, "ana@example.com", s.Email)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, "google", s.Provider)
	assert.Equal(t, "test-agent", s.UserAgent)
	assert.Equal(t, "10.0.0.1", s.IPAddress)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	stored, err := repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, stored.UserID)

	other, err := uc.Start(context.Background(), user, SessionMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestSessionUsecase_Start_CreateError(t *testing.T) {
	repo := newMockSessionRepository()
	storeErr := errors.New("redis down")
	repo.CreateFunc = func(ctx context.Context, s *entity.Session) error { return storeErr }
	uc := NewSessionUsecase(repo, time.Hour)

	s, err := uc.Start(context.Background(), &entity.User{ID: 1}, SessionMeta{})

	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, s)
}

func TestSessionUsecase_Authenticate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty id", func(t *testing.T) {
		uc := newTestSessionUsecase(newMockSessionRepository(), now)
		_, err := uc.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		uc := newTestSessionUsecase(newMockSessionRepository(), now)
		_, err := uc.Authenticate(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("live session", func(t *testing.T) {
		repo := newMockSessionRepository()
		require.NoError(t, repo.Create(context.Background(), &entity.Session{ID: "s1", UserID: 3, ExpiresAt: now.Add(time.Minute)}))
		uc := newTestSessionUsecase(repo, now)

		s, err := uc.Authenticate(context.Background(), "s1")

		require.NoError(t, err)
		assert.Equal(t, uint(3), s.UserID)
	})

	t.Run("expired session is deleted", func(t *testing.T) {
		repo := newMockSessionRepository()
		require.NoError(t, repo.Create(context.Background(), &entity.Session{ID: "s1", UserID: 3, ExpiresAt: now}))
		uc := newTestSessionUsecase(repo, now)

		_, err := uc.Authenticate(context.Background(), "s1")

		assert.ErrorIs(t, err, ErrSessionExpired)
		_, err = repo.FindByID(context.Background(), "s1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionUsecase_End(t *testing.T) {
	t.Run("deletes the session", func(t *testing.T) {
		repo := newMockSessionRepository()
		require.NoError(t, repo.Create(context.Background(), &entity.Session{ID: "s1"}))
		uc := NewSessionUsecase(repo, time.Hour)

		require.NoError(t, uc.End(context.Background(), "s1"))

		_, err := repo.FindByID(context.Background(), "s1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("empty id is a no-op", func(t *testing.T) {
		repo := newMockSessionRepository()
		repo.DeleteFunc = func(ctx context.Context, id string) error {
			t.Fatal("delete must not be called")
			return nil
		}
		uc := NewSessionUsecase(repo, time.Hour)
		assert.NoError(t, uc.End(context.Background(), ""))
	})

	t.Run("unknown session is ignored", func(t *testing.T) {
		repo := newMockSessionRepository()
		repo.DeleteFunc = func(ctx context.Context, id string) error { return ErrSessionNotFound }
		uc := NewSessionUsecase(repo, time.Hour)
		assert.NoError(t, uc.End(context.Background(), "gone"))
	})

	t.Run("store error is returned", func(t *testing.T) {
		repo := newMockSessionRepository()
		storeErr := errors.New("redis down")
		repo.DeleteFunc = func(ctx context.Context, id string) error { return storeErr }
		uc := NewSessionUsecase(repo, time.Hour)
		assert.ErrorIs(t, uc.End(context.Background(), "s1"), storeErr)
	})
}
