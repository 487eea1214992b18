package usecase

import (
	"context"
	"errors"
	"fmt"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// dummyPasswordHash is compared when the account is unknown or has no local password,
// so that login takes roughly the same time whether or not the email exists.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthUsecase authenticates local (email/password) accounts.
type AuthUsecase struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewAuthUsecase creates a new AuthUsecase.
func NewAuthUsecase(users UserRepository, hasher PasswordHasher) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		hasher: hasher,
	}
}

// Login verifies the credentials of a local account and returns the user.
// Unknown emails, federated-only accounts and wrong passwords all return ErrInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := u.users.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	passwordHash := dummyPasswordHash
	if err == nil && user.HasPassword() {
		passwordHash = *user.Password
	}

	// always compare to keep timing independent of account existence
	compareErr := u.hasher.Compare(passwordHash, password)

	if err != nil || !user.HasPassword() || compareErr != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
