package shared

import (
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按状态码与消息返回错误
func RespondError(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, response.WrapError(code, msg, err))
}

// RespondAppError 写出 AppError；原始错误只记日志，5xx 记 error，4xx 记 warn
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr == nil {
		appErr = response.Internal(nil)
	}
	if appErr.Err != nil {
		fields := []interface{}{
			"code", appErr.Status(),
			"message", appErr.Message,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", appErr.Err,
		}
		if appErr.Status() >= response.CodeInternal {
			RequestLog(c).Errorw("handler_error", fields...)
		} else {
			RequestLog(c).Warnw("handler_rejected", fields...)
		}
	}
	response.Fail(c, appErr)
}
