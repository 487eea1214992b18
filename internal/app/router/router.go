// Package router wires the HTTP routes and the access policy.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "focoprod_backend/internal/feature/auth/transport/handler"
	platformhandler "focoprod_backend/internal/platform/http/handler"
	"focoprod_backend/internal/platform/http/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth   *authhandler.AuthHandler
	OAuth  *authhandler.OAuthHandler
	Health *platformhandler.HealthHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	CORSOrigins    []string
	RequireSession gin.HandlerFunc
	// PasswordRateLimit はパスワードを受け取るエンドポイントに適用されます。nil なら制限なし。
	PasswordRateLimit gin.HandlerFunc
}

// NewRouter builds the gin engine.
//
// Public: registration, federated login entry points (/oauth2/**, /login/**), logout, the error page
// and the health check. Everything else, including unknown paths, requires a session.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(nil))

	// 前提: ブラウザのフロントエンドからCookie付きで呼び出される
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limit := opts.PasswordRateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	// 認証不要
	r.POST("/api/auth/register", limit, h.Auth.Register)
	r.GET("/oauth2/authorization/:provider", h.OAuth.Authorize)
	r.GET("/login/oauth2/code/:provider", h.OAuth.Callback)
	r.POST("/login", limit, h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)
	r.GET("/error", platformhandler.Error)
	r.GET("/api/health", h.Health.Health)
	r.HEAD("/api/health", h.Health.Health)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(opts.RequireSession)
	{
		auth.GET("/api/auth/dashboard", h.Auth.Dashboard)
		auth.GET("/home", authhandler.Home)
	}

	// 未定義のパスもセッションがなければ401、あれば404
	r.NoRoute(opts.RequireSession, func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
