package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"focoprod_backend/internal/app/config"
	"focoprod_backend/internal/app/di"
	"focoprod_backend/internal/app/router"
	authadapters "focoprod_backend/internal/feature/auth/adapters"
	authhandler "focoprod_backend/internal/feature/auth/transport/handler"
	authusecase "focoprod_backend/internal/feature/auth/usecase"
	"focoprod_backend/internal/platform/db"
	platformhttp "focoprod_backend/internal/platform/http"
	platformhandler "focoprod_backend/internal/platform/http/handler"
	"focoprod_backend/internal/platform/logging"
	"focoprod_backend/internal/platform/password"
	infraredis "focoprod_backend/internal/platform/redis"
	"focoprod_backend/internal/platform/session"
	"focoprod_backend/internal/platform/statetoken"
	"focoprod_backend/internal/shared/ratelimiter"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.RedisAddr != "" {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
			slog.Warn("Redis unavailable. Sessions are stored in the database.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository
	userRepo := authadapters.NewUserRepository(gdb)
	sessionRepo, sweeper := di.NewSessionRepository(rdb, gdb)
	go di.RunSessionSweeper(ctx, sweeper, sessionSweepInterval)

	// Usecase
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	registrationUC := authusecase.NewRegistrationUsecase(userRepo, hasher)
	authUC := authusecase.NewAuthUsecase(userRepo, hasher)
	reconcileUC := authusecase.NewReconcileUsecase(userRepo)
	sessionUC := authusecase.NewSessionUsecase(sessionRepo, cfg.SessionTTL)

	// Handler
	cookie := session.CookieOptions{
		Name:     cfg.SessionCookieName,
		Secure:   cfg.SessionCookieSecure,
		SameSite: cfg.SameSite(),
	}
	providers := di.NewProviderRegistry(ctx, cfg, platformhttp.NewHTTPClient(cfg.HTTPClientTimeout))
	signer := statetoken.NewSigner(cfg.StateSecretBytes(), statetoken.DefaultTTL)

	authH := authhandler.NewAuthHandler(registrationUC, authUC, sessionUC, cookie, cfg.FrontendLogoutURL)
	oauthH := authhandler.NewOAuthHandler(providers, reconcileUC, sessionUC, signer, authhandler.OAuthConfig{
		SuccessRedirectURL: cfg.FrontendSuccessURL,
		FailureRedirectURL: cfg.FrontendFailureURL,
		SessionCookie:      cookie,
	})
	healthH := platformhandler.NewHealthHandler(db.NewPinger(gdb))

	opts := router.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RequireSession: session.RequireSession(sessionUC, cfg.SessionCookieName),
	}
	if cfg.LoginRateLimit > 0 {
		rl := ratelimiter.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
		go rl.SweepEvery(ctx, 5*time.Minute)
		opts.PasswordRateLimit = ratelimiter.Middleware(rl)
	}

	// ルータ生成
	r := router.NewRouter(router.Handlers{Auth: authH, OAuth: oauthH, Health: healthH}, opts)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr, "providers", providers.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	sqlDB, err := gdb.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
