package response

import "net/http"

const (
	CodeBadRequest      = http.StatusBadRequest
	CodeNotFound        = http.StatusNotFound
	CodeConflict        = http.StatusConflict
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeInternal        = http.StatusInternalServerError
)

// MsgInternal 未分类错误对外统一提示
const MsgInternal = "Internal Server Error"
