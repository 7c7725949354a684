package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError 接口错误：Code 为 HTTP 状态，Message 下发给调用方，Err 只进日志
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status 可写出的错误状态码，非 4xx/5xx 一律按 500
func (e *AppError) Status() int {
	if e == nil || e.Code < http.StatusBadRequest || e.Code > 599 {
		return CodeInternal
	}
	return e.Code
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Internal 未映射的内部错误，对外只给通用消息
func Internal(err error) *AppError {
	return WrapError(CodeInternal, MsgInternal, err)
}

// AsAppError 取错误链上的 AppError，取不到时按内部错误处理
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Fail 写出 AppError 并终止后续处理
func Fail(c *gin.Context, e *AppError) {
	if e == nil {
		e = Internal(nil)
	}
	Error(c, e.Status(), e.Message)
	c.Abort()
}
