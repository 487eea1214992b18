package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"focoprod_backend/internal/feature/auth/domain/entity"
	"focoprod_backend/internal/feature/auth/usecase"
)

// ContextSession is the gin context key holding the authenticated *entity.Session.
const ContextSession = "session"

// Authenticator resolves a session ID into a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, id string) (*entity.Session, error)
}

// RequireSession returns a Gin middleware that only lets requests with a live session cookie through.
func RequireSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		s, err := auth.Authenticate(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, usecase.ErrSessionNotFound) && !errors.Is(err, usecase.ErrSessionExpired) {
				slog.Error("session lookup failed", "error", err, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(ContextSession, s)
		c.Next()
	}
}

// FromContext returns the session stored by RequireSession.
func FromContext(c *gin.Context) (*entity.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	s, ok := v.(*entity.Session)
	return s, ok
}
