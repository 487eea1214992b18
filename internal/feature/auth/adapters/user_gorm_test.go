package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"focoprod_backend/internal/feature/auth/domain/entity"
	"focoprod_backend/internal/feature/auth/usecase"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	// every pooled connection would otherwise get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(&entity.User{}, &SessionModel{})
	require.NoError(t, err, "failed to migrate tables")

	return db
}

func strPtr(s string) *string { return &s }

func TestNewUserRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewUserRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestUserGorm_Save(t *testing.T) {
	t.Run("insert assigns id and timestamps", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		user := &entity.User{
			Email:    "test@example.com",
			Name:     "Test",
			Password: strPtr("hashed_password"),
			Provider: entity.ProviderLocal,
		}

		err := repo.Save(context.Background(), user)

		require.NoError(t, err, "failed to create user")
		assert.NotZero(t, user.ID, "ID is not set")
		assert.False(t, user.CreatedAt.IsZero(), "CreatedAt is not set")
		assert.False(t, user.UpdatedAt.IsZero(), "UpdatedAt is not set")
	})

	t.Run("duplicate email returns ErrEmailAlreadyExists", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		err := repo.Save(context.Background(), &entity.User{Email: "dup@example.com", Name: "A", Provider: entity.ProviderLocal})
		require.NoError(t, err, "failed to create first user")

		err = repo.Save(context.Background(), &entity.User{Email: "dup@example.com", Name: "B", Provider: "google", ProviderID: "sub"})

		assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)
	})

	t.Run("update by id", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := &entity.User{Email: "ana@example.com", Name: "Ana", Provider: entity.ProviderLocal, Password: strPtr("h")}
		require.NoError(t, repo.Save(context.Background(), user))

		user.Name = "Ana Maria"
		user.Provider = "google"
		user.ProviderID = "sub-1"
		require.NoError(t, repo.Save(context.Background(), user))

		found, err := repo.FindByEmail(context.Background(), "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "Ana Maria", found.Name)
		assert.Equal(t, "google", found.Provider)
		assert.Equal(t, "sub-1", found.ProviderID)
		require.NotNil(t, found.Password)
		assert.Equal(t, "h", *found.Password)
	})

	t.Run("nil user error", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		err := repo.Save(context.Background(), nil)

		assert.Error(t, err)
	})
}

func TestUserGorm_FindByEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Save(context.Background(), &entity.User{Email: "ana@example.com", Name: "Ana", Provider: entity.ProviderLocal}))

	t.Run("existing user", func(t *testing.T) {
		found, err := repo.FindByEmail(context.Background(), "ana@example.com")

		require.NoError(t, err)
		assert.Equal(t, "Ana", found.Name)
		assert.Nil(t, found.Password)
	})

	t.Run("missing user", func(t *testing.T) {
		found, err := repo.FindByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
		assert.Nil(t, found)
	})
}

func TestUserGorm_FindByProviderAndProviderID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	require.NoError(t, repo.Save(context.Background(), &entity.User{Email: "ana@example.com", Name: "Ana", Provider: "google", ProviderID: "sub-1"}))

	found, err := repo.FindByProviderAndProviderID(context.Background(), "google", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)

	_, err = repo.FindByProviderAndProviderID(context.Background(), "google", "sub-2")
	assert.ErrorIs(t, err, usecase.ErrUserNotFound)
}

func TestUserGorm_WithinTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		err := repo.WithinTx(context.Background(), func(tx usecase.UserRepository) error {
			return tx.Save(context.Background(), &entity.User{Email: "ana@example.com", Name: "Ana", Provider: entity.ProviderLocal})
		})
		require.NoError(t, err)

		_, err = repo.FindByEmail(context.Background(), "ana@example.com")
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		err := repo.WithinTx(context.Background(), func(tx usecase.UserRepository) error {
			if err := tx.Save(context.Background(), &entity.User{Email: "ana@example.com", Name: "Ana", Provider: entity.ProviderLocal}); err != nil {
				return err
			}
			return usecase.ErrEmailAlreadyExists
		})
		assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)

		_, err = repo.FindByEmail(context.Background(), "ana@example.com")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})
}

// The usecases run end to end against the SQL store.
func TestUserGorm_WithUsecases(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	reg := usecase.NewRegistrationUsecase(repo, plainHasher{})
	result, err := reg.Register(ctx, "Ana@Example.com", "Ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, usecase.RegisterResultRegistered, result)

	result, err = reg.Register(ctx, "ana@example.com", "Ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, usecase.RegisterResultAlreadyExists, result)

	rec := usecase.NewReconcileUsecase(repo)
	outcome, user, err := rec.Reconcile(ctx, "google", entity.Identity{Subject: "sub-1", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeUpdated, outcome)
	assert.Equal(t, "Ana", user.Name)

	var count int64
	require.NoError(t, repo.db.Model(&entity.User{}).Where("email = ?", "ana@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Compare(hash, pw string) error {
	if hash != "h:"+pw {
		return usecase.ErrInvalidCredentials
	}
	return nil
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"translated gorm duplicate", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm duplicate", fmt.Errorf("save: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped postgres unique violation", fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_usuarios_email"}), true},
		{"postgres not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"other error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestUserGorm_Save_PostgresUniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	// the postgres driver reports duplicates as a raw *pgconn.PgError
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:pg_unique_violation", func(tx *gorm.DB) {
		_ = tx.AddError(fmt.Errorf("ERROR: duplicate key value: %w", &pgconn.PgError{Code: "23505"}))
	}))
	repo := NewUserRepository(db)

	err := repo.Save(context.Background(), &entity.User{Email: "ana@example.com", Name: "Ana", Provider: entity.ProviderLocal})

	assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)
}
