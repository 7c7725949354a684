package public

import (
	"context"
	"time"

	"github.com/dujiao-next/cartflow/internal/cache"
	handlershared "github.com/dujiao-next/cartflow/internal/http/handlers/shared"
	"github.com/dujiao-next/cartflow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Healthz 存活检查，Redis 启用时附带连通性
func (h *Handler) Healthz(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"store":  h.Store.Driver(),
	}
	if cache.Enabled() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			handlershared.RequestLog(c).Warnw("healthz_redis_unavailable", "error", err)
			body["redis"] = "unavailable"
		} else {
			body["redis"] = "ok"
		}
	}
	response.Success(c, body)
}
