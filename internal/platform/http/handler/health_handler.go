// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// dbPingTimeout はヘルスチェック時のDB疎通確認のタイムアウトです。
const dbPingTimeout = 2 * time.Second

// Pinger はDBなど依存先の疎通確認を抽象化します。
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler は /api/health エンドポイントを処理します。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler は新しいHealthHandlerを生成します。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health はDBの疎通を含めたヘルスチェックを返します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		if c.Request.Method == http.MethodHead {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "db": false})
		return
	}

	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": true})
}
