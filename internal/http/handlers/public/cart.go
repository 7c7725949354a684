package public

import (
	"net/http"

	handlershared "github.com/dujiao-next/cartflow/internal/http/handlers/shared"
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 加入购物车请求，productId 与旧字段 id 二选一
type CheckoutRequest struct {
	ProductID handlershared.FlexibleID `json:"productId" binding:"required_without=ID"`
	ID        handlershared.FlexibleID `json:"id" binding:"required_without=ProductID"`
	Quantity  *int                     `json:"quantity" binding:"omitempty,gt=0"`
}

func (r CheckoutRequest) input(defaultQuantity int) service.CheckoutInput {
	quantity := defaultQuantity
	if r.Quantity != nil {
		quantity = *r.Quantity
	}
	return service.CheckoutInput{
		ProductID: handlershared.FirstNonEmpty(r.ProductID.String(), r.ID.String()),
		Quantity:  quantity,
	}
}

// GetCart 购物车内容
func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.CartService.List(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, response.MsgInternal, err)
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}
	response.Success(c, items)
}

// Checkout 加入购物车，数量必填
func (h *Handler) Checkout(c *gin.Context) {
	h.checkout(c, 0, func(item *models.CartItem) interface{} { return item })
}

// AddToCart 加入购物车，数量缺省为 1
func (h *Handler) AddToCart(c *gin.Context) {
	h.checkout(c, 1, func(item *models.CartItem) interface{} { return item })
}

// LegacyCheckout 旧版 POST /checkout，返回旧版购物车项格式
func (h *Handler) LegacyCheckout(c *gin.Context) {
	h.checkout(c, 0, func(item *models.CartItem) interface{} { return newLegacyCartItem(*item) })
}

func (h *Handler) checkout(c *gin.Context, defaultQuantity int, render func(*models.CartItem) interface{}) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMappedError(c, service.ErrCartItemInvalid, checkoutErrorRules)
		return
	}
	item, err := h.CartService.Checkout(c.Request.Context(), req.input(defaultQuantity))
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules)
		return
	}
	response.WithMessage(c, http.StatusOK, "Item added to the cart successfully", gin.H{"item": render(item)})
}

// CancelCart 取消购物车：关联订单行标记取消并清空购物车
func (h *Handler) CancelCart(c *gin.Context) {
	result, err := h.OrderService.CancelCart(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, response.MsgInternal, err)
		return
	}
	response.WithMessage(c, http.StatusOK, "Cart cancelled successfully", gin.H{
		"cancelledLines": result.CancelledLines,
		"removedItems":   result.RemovedItems,
	})
}
