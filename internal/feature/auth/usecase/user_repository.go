package usecase

import (
	"context"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// FindByEmail retrieves the user with the given normalized email.
	// It returns ErrUserNotFound if the user does not exist.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByProviderAndProviderID retrieves the user last linked to the given federated identity.
	// It returns ErrUserNotFound if no user carries that pair.
	FindByProviderAndProviderID(ctx context.Context, provider, providerID string) (*entity.User, error)

	// Save inserts the user when it has no ID yet and updates it by ID otherwise.
	// A collision on the unique email index returns ErrEmailAlreadyExists.
	Save(ctx context.Context, user *entity.User) error

	// WithinTx runs fn inside a single transaction. The repository passed to fn is bound to it;
	// returning an error from fn rolls the transaction back.
	WithinTx(ctx context.Context, fn func(repo UserRepository) error) error
}

// PasswordHasher hashes and verifies local account passwords.
type PasswordHasher interface {
	// Hash returns a one-way adaptive hash of password.
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}
