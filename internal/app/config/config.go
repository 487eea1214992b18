// Package config はアプリケーション全体の設定を環境変数（および.env）から読み込みます。
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"focoprod_backend/internal/platform/db"
)

// Config はサーバー起動に必要なすべての設定です。
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	RunMigrations   bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	DB db.Config

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	Google GoogleConfig

	FrontendSuccessURL string   `env:"FRONTEND_SUCCESS_URL" envDefault:"http://localhost:4200/dashboard"`
	FrontendFailureURL string   `env:"FRONTEND_FAILURE_URL" envDefault:"http://localhost:4200/login"`
	FrontendLogoutURL  string   `env:"FRONTEND_LOGOUT_URL" envDefault:"http://localhost:4200/"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200"`

	SessionCookieName     string        `env:"SESSION_COOKIE_NAME" envDefault:"JSESSIONID"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieSecure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionCookieSameSite string        `env:"SESSION_COOKIE_SAMESITE" envDefault:"lax"`

	// LoginRateLimit はクライアントIPごとの1分あたりのログイン/登録試行の上限です。0 で無効。
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"20"`

	StateSecret string `env:"STATE_SECRET"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"12"`

	// HTTPClientTimeout はOIDCプロバイダへのHTTP呼び出しのタイムアウトです。
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"10s"`
}

// GoogleConfig はGoogle OIDCクライアントの設定です。ClientIDが空の場合Googleログインは無効です。
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/login/oauth2/code/google"`
	Issuer       string   `env:"OIDC_GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	Scopes       []string `env:"GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
}

// Enabled はGoogleログインが設定されているかを返します。
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load は.envファイル（存在する場合）と環境変数から設定を読み込みます。
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// .envがなくてもエラーにしない
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Google.ClientID != "" && c.Google.ClientSecret == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set"))
	}
	if _, err := parseSameSite(c.SessionCookieSameSite); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SameSite はSESSION_COOKIE_SAMESITEをhttp.SameSiteに変換します。
func (c *Config) SameSite() http.SameSite {
	s, _ := parseSameSite(c.SessionCookieSameSite)
	return s
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("SESSION_COOKIE_SAMESITE %q must be lax, strict or none", s)
	}
}

// StateSecretBytes はOAuth state署名用の鍵を返します。
// STATE_SECRETが未設定の場合はプロセスごとのランダム鍵を生成します（再起動で進行中のログインは無効になります）。
func (c *Config) StateSecretBytes() []byte {
	if c.StateSecret != "" {
		return []byte(c.StateSecret)
	}
	slog.Warn("STATE_SECRET is not set; using a random per-process key. Set a strong secret in production.")
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}
