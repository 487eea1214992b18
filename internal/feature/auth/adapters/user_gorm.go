// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"focoprod_backend/internal/feature/auth/domain/entity"
	"focoprod_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反（unique_violation）のSQLSTATEです。
const pgUniqueViolation = "23505"

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQL（本番）とSQLite（テスト）の両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByProviderAndProviderID はプロバイダ名とsubjectでユーザーを取得します。
func (r *userGorm) FindByProviderAndProviderID(ctx context.Context, provider, providerID string) (*entity.User, error) {
	return r.first(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (r *userGorm) first(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Save はIDが未設定ならINSERT、設定済みならUPDATEを行います。
// メールアドレスの一意制約に違反した場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Save(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}

	tx := r.db.WithContext(ctx)
	var err error
	if u.ID == 0 {
		err = tx.Create(u).Error
	} else {
		err = tx.Save(u).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// WithinTx はfnを1つのトランザクション内で実行します。
// fnがエラーを返した場合はロールバックされます。
func (r *userGorm) WithinTx(ctx context.Context, fn func(repo usecase.UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&userGorm{db: tx})
	})
}

// isUniqueViolation はTranslateErrorで変換済みのエラーと、pgxの生エラーの両方を判定します。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
