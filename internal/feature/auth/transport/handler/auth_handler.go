// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"focoprod_backend/internal/feature/auth/domain/entity"
	"focoprod_backend/internal/feature/auth/transport/http/dto"
	"focoprod_backend/internal/feature/auth/usecase"
	"focoprod_backend/internal/platform/session"
)

// DashboardMessage は /api/auth/dashboard の固定レスポンスです。
const DashboardMessage = "Bienvenido al Dashboard 🚀"

// Registrar はローカルアカウント登録のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type Registrar interface {
	Register(ctx context.Context, email, name, password string) (usecase.RegisterResult, error)
}

// PasswordAuthenticator はメールアドレスとパスワードによる認証を定義します。
type PasswordAuthenticator interface {
	Login(ctx context.Context, email, password string) (*entity.User, error)
}

// SessionManager はサーバー側セッションの開始と終了を定義します。
type SessionManager interface {
	Start(ctx context.Context, user *entity.User, meta usecase.SessionMeta) (*entity.Session, error)
	End(ctx context.Context, id string) error
}

// AuthHandler はローカル登録・ログイン・ログアウトのHTTPリクエストを処理します。
type AuthHandler struct {
	registrar Registrar
	auth      PasswordAuthenticator
	sessions  SessionManager
	cookie    session.CookieOptions
	logoutURL string
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// logoutURLはログアウト後のリダイレクト先です。
func NewAuthHandler(registrar Registrar, auth PasswordAuthenticator, sessions SessionManager,
	cookie session.CookieOptions, logoutURL string) *AuthHandler {
	return &AuthHandler{
		registrar: registrar,
		auth:      auth,
		sessions:  sessions,
		cookie:    cookie,
		logoutURL: logoutURL,
	}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - 不正なJSONは400を返却
// - 登録済み・新規登録どちらの場合も200とプレーンテキストのメッセージを返却
// - ストア障害時は500を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register request malformed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	result, err := h.registrar.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if errors.Is(err, usecase.ErrPasswordTooLong) {
		slog.Warn("register rejected, password too long", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "password too long"})
		return
	}
	if err != nil {
		slog.Error("register failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	if result == usecase.RegisterResultAlreadyExists {
		slog.Info("register skipped, email already in use", "email", req.Email, "remote_addr", c.ClientIP())
	} else {
		slog.Info("user registered", "email", req.Email, "remote_addr", c.ClientIP())
	}
	c.String(http.StatusOK, result.Message())
}

// Login はローカルアカウントのログインを処理し、セッションCookieを発行します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password"})
			return
		}
		slog.Error("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	if !startSession(c, h.sessions, h.cookie, user) {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "session error"})
		return
	}
	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.LoginResponse{Message: "ok", Email: user.Email, Name: user.Name})
}

// Logout はセッションを破棄し、Cookieを削除してフロントエンドへリダイレクトします。
// セッションがなくても成功扱いです。
func (h *AuthHandler) Logout(c *gin.Context) {
	if id, err := c.Cookie(h.cookie.Name); err == nil && id != "" {
		if err := h.sessions.End(c.Request.Context(), id); err != nil {
			slog.Warn("failed to end session on logout", "error", err, "remote_addr", c.ClientIP())
		}
	}
	session.ClearCookie(c.Writer, h.cookie)
	c.Redirect(http.StatusFound, h.logoutURL)
}

// Dashboard は固定のプレースホルダーテキストを返します。
func (h *AuthHandler) Dashboard(c *gin.Context) {
	c.String(http.StatusOK, DashboardMessage)
}

// startSession replaces any session the browser already holds with a new one for user.
// It logs and returns false when the session could not be stored.
func startSession(c *gin.Context, sessions SessionManager, cookie session.CookieOptions, user *entity.User) bool {
	ctx := c.Request.Context()

	// no session fixation: the pre-login id never survives a login
	if old, err := c.Cookie(cookie.Name); err == nil && old != "" {
		if err := sessions.End(ctx, old); err != nil {
			slog.Warn("failed to end previous session", "error", err)
		}
	}

	s, err := sessions.Start(ctx, user, usecase.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		return false
	}
	session.SetCookie(c.Writer, s.ID, s.ExpiresAt, cookie)
	return true
}
