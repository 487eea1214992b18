package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// memoryUserRepository is an in-memory UserRepository that enforces the unique email index
// like the real store does. Hooks let a test override single calls.
type memoryUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]entity.User

	findCalls int
	saveCalls int

	// FindByEmailFunc, when set, replaces the FindByEmail lookup.
	FindByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
	// SaveFunc, when set, is called before the regular save; a non-nil error aborts the save.
	SaveFunc func(ctx context.Context, user *entity.User) error
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[uint]entity.User)}
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	r.findCalls++
	hook := r.FindByEmailFunc
	r.mu.Unlock()

	if hook != nil {
		return hook(ctx, email)
	}
	return r.lookup(func(u entity.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) FindByProviderAndProviderID(_ context.Context, provider, providerID string) (*entity.User, error) {
	return r.lookup(func(u entity.User) bool { return u.Provider == provider && u.ProviderID == providerID })
}

func (r *memoryUserRepository) lookup(match func(entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.saveCalls++
	hook := r.SaveFunc
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, user); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Email == user.Email && id != user.ID {
			return ErrEmailAlreadyExists
		}
	}

	now := time.Now()
	if user.ID == 0 {
		r.nextID++
		user.ID = r.nextID
		user.CreatedAt = now
	} else if _, ok := r.users[user.ID]; !ok {
		return errors.New("update of unknown user")
	}
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) WithinTx(_ context.Context, fn func(repo UserRepository) error) error {
	return fn(r)
}

// all returns a snapshot of the stored users.
func (r *memoryUserRepository) all() []entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

// countByEmail returns how many stored users carry email.
func (r *memoryUserRepository) countByEmail(email string) int {
	n := 0
	for _, u := range r.all() {
		if u.Email == email {
			n++
		}
	}
	return n
}

func (r *memoryUserRepository) calls() (finds, saves int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls, r.saveCalls
}

// mockPasswordHasher is a mock implementation of PasswordHasher.
type mockPasswordHasher struct {
	HashFunc    func(password string) (string, error)
	CompareFunc func(hash, password string) error
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockPasswordHasher) Compare(hash, password string) error {
	if m.CompareFunc != nil {
		return m.CompareFunc(hash, password)
	}
	if hash == "hashed:"+password {
		return nil
	}
	return errors.New("mismatch")
}

// mockSessionRepository is a mock implementation of SessionRepository backed by a map.
type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]entity.Session

	CreateFunc func(ctx context.Context, s *entity.Session) error
	DeleteFunc func(ctx context.Context, id string) error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]entity.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, s *entity.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *mockSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
