package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"focoprod_backend/internal/feature/auth/domain/entity"
)

// maxReconcileAttempts bounds the retries after losing an insert race on the same email.
const maxReconcileAttempts = 3

// ReconcileOutcome tells the caller what reconciliation did with a federated identity.
type ReconcileOutcome int

const (
	// OutcomeSkipped means the claim set had no usable email; nothing was read or written.
	OutcomeSkipped ReconcileOutcome = iota + 1
	// OutcomeCreated means a new user was inserted.
	OutcomeCreated
	// OutcomeUpdated means an existing user was refreshed.
	OutcomeUpdated
)

func (o ReconcileOutcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// ReconcileUsecase maps federated identities onto the user store, keyed by email.
type ReconcileUsecase struct {
	users UserRepository
}

// NewReconcileUsecase creates a new ReconcileUsecase.
func NewReconcileUsecase(users UserRepository) *ReconcileUsecase {
	return &ReconcileUsecase{users: users}
}

// Reconcile finds or creates the user for a successful federated login and merges the incoming claims.
//
//   - no email: OutcomeSkipped, no store access
//   - known email: name refreshed only when the claim name is non-blank; provider and subject always overwritten
//   - unknown email: new user, placeholder name when the claim name is blank, no password
//
// The read-then-write runs in one transaction. When a concurrent callback inserts the same email first,
// the unique index rejects the insert and the lookup-and-update is retried.
func (u *ReconcileUsecase) Reconcile(ctx context.Context, provider string, identity entity.Identity) (ReconcileOutcome, *entity.User, error) {
	if !identity.HasEmail() {
		return OutcomeSkipped, nil, nil
	}
	email := entity.NormalizeEmail(identity.Email)

	for attempt := 1; ; attempt++ {
		outcome, user, err := u.reconcileOnce(ctx, provider, email, identity)
		if err == nil {
			return outcome, user, nil
		}
		if !errors.Is(err, ErrEmailAlreadyExists) || attempt >= maxReconcileAttempts {
			return 0, nil, fmt.Errorf("reconcile %s identity: %w", provider, err)
		}
		slog.WarnContext(ctx, "reconcile lost insert race, retrying",
			"provider", provider, "email", email, "attempt", attempt)
	}
}

func (u *ReconcileUsecase) reconcileOnce(ctx context.Context, provider, email string, identity entity.Identity) (ReconcileOutcome, *entity.User, error) {
	var (
		outcome ReconcileOutcome
		saved   *entity.User
	)
	err := u.users.WithinTx(ctx, func(repo UserRepository) error {
		user, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			// never overwrite a real name with a blank one
			if identity.HasName() {
				user.Name = strings.TrimSpace(identity.Name)
			}
			if !identity.EmailVerified {
				slog.WarnContext(ctx, "linking unverified email to existing user",
					"provider", provider, "user_id", user.ID, "previous_provider", user.Provider)
			}
			user.Provider = provider
			user.ProviderID = identity.Subject
			outcome = OutcomeUpdated
		case errors.Is(err, ErrUserNotFound):
			name := entity.PlaceholderName
			if identity.HasName() {
				name = strings.TrimSpace(identity.Name)
			}
			user = &entity.User{
				Email:      email,
				Name:       name,
				Provider:   provider,
				ProviderID: identity.Subject,
			}
			outcome = OutcomeCreated
		default:
			return fmt.Errorf("find user: %w", err)
		}

		if err := repo.Save(ctx, user); err != nil {
			return err
		}
		saved = user
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return outcome, saved, nil
}
