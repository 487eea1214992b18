package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error describes a failed flow to the browser. The optional "error" query parameter names the cause.
func Error(c *gin.Context) {
	reason := c.Query("error")
	if reason == "" {
		reason = "unknown_error"
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "error", "error": reason})
}
