package public

import (
	"errors"
	"io"

	handlershared "github.com/dujiao-next/cartflow/internal/http/handlers/shared"
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondWithMappedError 命中规则按规则返回，否则按 500 返回并记录原始错误。
func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	handlershared.RespondAppError(c, response.AsAppError(err))
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var productErrorRules = []mappedHandlerError{
	{target: service.ErrProductInvalid, code: response.CodeBadRequest, msg: "Name, description, price, stock, and imageUrl are required in the request body"},
	{target: service.ErrProductIDConflict, code: response.CodeBadRequest, msg: "Product ID already exists"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "Product not found"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, msg: "Both product ID and quantity are required in the request body"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "Requested quantity exceeds available stock"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "Product not found"},
}

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrOrderIDRequired, code: response.CodeBadRequest, msg: "Order ID is required"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "Order not found"},
}

var orderPlaceErrorRules = []mappedHandlerError{
	{target: service.ErrOrderInvalid, code: response.CodeBadRequest, msg: "ID, date, and address are required in the request body"},
	{target: service.ErrOrderDateInvalid, code: response.CodeBadRequest, msg: "Date must be YYYY-MM-DD or RFC 3339"},
	{target: service.ErrOrderIDConflict, code: response.CodeBadRequest, msg: "Order ID already exists"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "Cart is empty. Add items to the cart before placing an order."},
	{target: service.ErrCartChanged, code: response.CodeConflict, msg: "Cart changed while placing the order, please retry"},
}

var orderStatusErrorRules = concatMappedHandlerErrors(
	[]mappedHandlerError{
		{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "Status must be one of pending, processing, shipped, delivered"},
	},
	orderLookupErrorRules,
)

// bindOptionalJSON 允许空请求体，其余解析错误照常返回
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
