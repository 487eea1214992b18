package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// User-visible registration messages. They are part of the HTTP contract.
const (
	MessageUserAlreadyExists = "El usuario ya existe"
	MessageUserRegistered    = "Usuario registrado correctamente"
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// RegisterResult is the soft outcome of a registration attempt.
type RegisterResult int

const (
	// RegisterResultRegistered means a new local account was created.
	RegisterResultRegistered RegisterResult = iota + 1
	// RegisterResultAlreadyExists means the email is taken, by any provider.
	RegisterResultAlreadyExists
)

// Message returns the text shown to the user for the result.
func (r RegisterResult) Message() string {
	switch r {
	case RegisterResultRegistered:
		return MessageUserRegistered
	case RegisterResultAlreadyExists:
		return MessageUserAlreadyExists
	default:
		return ""
	}
}

// RegistrationUsecase creates local accounts.
type RegistrationUsecase struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewRegistrationUsecase creates a new RegistrationUsecase.
func NewRegistrationUsecase(users UserRepository, hasher PasswordHasher) *RegistrationUsecase {
	return &RegistrationUsecase{
		users:  users,
		hasher: hasher,
	}
}

// Register creates a local account for email unless one already exists.
// Field emptiness is not validated here; that is the caller's responsibility.
// A duplicate detected by the store (concurrent signup) is reported as RegisterResultAlreadyExists.
func (u *RegistrationUsecase) Register(ctx context.Context, email, name, password string) (RegisterResult, error) {
	if len(password) > MaxPasswordBytes {
		return 0, ErrPasswordTooLong
	}
	email = entity.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		name = entity.PlaceholderName
	}

	var result RegisterResult
	err := u.users.WithinTx(ctx, func(repo UserRepository) error {
		_, err := repo.FindByEmail(ctx, email)
		if err == nil {
			result = RegisterResultAlreadyExists
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("find user: %w", err)
		}

		hashed, err := u.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := &entity.User{
			Email:    email,
			Name:     name,
			Password: &hashed,
			Provider: entity.ProviderLocal,
		}
		if err := repo.Save(ctx, user); err != nil {
			return err
		}
		result = RegisterResultRegistered
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return RegisterResultAlreadyExists, nil
		}
		return 0, err
	}
	return result, nil
}
