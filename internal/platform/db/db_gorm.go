// Package db はデータベース接続（PostgreSQL / SQLite）とマイグレーションを提供します。
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	authadapters "focoprod_backend/internal/feature/auth/adapters"
	"focoprod_backend/internal/feature/auth/domain/entity"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"postgres"`
	User         string        `env:"DB_USER"`
	Password     string        `env:"DB_PASSWORD"`
	Name         string        `env:"DB_NAME"`
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         string        `env:"DB_PORT" envDefault:"5432"`
	SSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	InstanceName string        `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath   string        `env:"DB_SQLITE_PATH" envDefault:"focoprod.db"`
	ConnTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"60s"`
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替え可能です。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() (Config, error) {
	return env.ParseAs[Config]()
}

// BuildDSN は設定からDSN文字列を生成します。
// InstanceNameが設定されている場合はCloud SQLのUnixソケット接続を優先します。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.SQLitePath
	}

	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	if port != "" {
		dsn += " port=" + port
	}
	return dsn
}

// gormConfig はDBエラーをgormの共通エラー（ErrDuplicatedKeyなど）に変換する設定を返します。
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// NewOpener はドライバ名に対応するOpenerを返します。
func NewOpener(driver string) (Opener, error) {
	switch driver {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormConfig())
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// ConnectWithRetry はtimeoutに達するまでretryInterval間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定に従ってデータベースへ接続します。
func Open(cfg Config) (*gorm.DB, error) {
	open, err := NewOpener(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnTimeout, open)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLiteは書き込みが直列化されるため接続を1本に絞る
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}

// ErrEmailNormalizationConflict は大文字小文字違いの同一メールが既に複数行存在する場合に返されます。
// 該当行は手作業で統合する必要があります。
var ErrEmailNormalizationConflict = errors.New("usuarios contains emails that collide after normalization")

// Migrate はusuariosテーブルとsessionsテーブルを作成・更新し、既存行のメールを正規化します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.User{}, &authadapters.SessionModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	n, err := NormalizeEmails(db)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("normalized legacy user emails", "count", n)
	}
	return nil
}

// NormalizeEmails は既存のusuarios行のemailを entity.NormalizeEmail と同じ規則（前後空白除去・小文字化）に揃えます。
// 一意インデックスは正規化済みの値に対して張られるため、大文字を含む旧データがあると検索に一致せず重複行が作られてしまいます。
// 正規化の結果が既存行と衝突する場合は何も更新せず ErrEmailNormalizationConflict を返します。
func NormalizeEmails(db *gorm.DB) (int64, error) {
	res := db.Model(&entity.User{}).
		Where("email <> LOWER(TRIM(email))").
		Update("email", gorm.Expr("LOWER(TRIM(email))"))
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("%w: %v", ErrEmailNormalizationConflict, res.Error)
		}
		return 0, fmt.Errorf("failed to normalize emails: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Pinger はgorm.DBの疎通確認を行います。
type Pinger struct {
	db *gorm.DB
}

// NewPinger は新しいPingerを生成します。
func NewPinger(db *gorm.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping はDBへの疎通を確認します。
func (p *Pinger) Ping(ctx context.Context) error {
	if p.db == nil {
		return errors.New("db is not configured")
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
