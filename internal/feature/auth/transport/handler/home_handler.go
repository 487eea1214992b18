package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"focoprod_backend/internal/feature/auth/transport/http/dto"
	"focoprod_backend/internal/platform/session"
)

// Home greets the authenticated principal by name and email.
func Home(c *gin.Context) {
	s, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
		return
	}
	c.String(http.StatusOK, fmt.Sprintf("Bienvenido, %s (%s)", s.Name, s.Email))
}
