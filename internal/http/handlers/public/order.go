package public

import (
	"net/http"

	handlershared "github.com/dujiao-next/cartflow/internal/http/handlers/shared"
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	ID      handlershared.FlexibleID `json:"id" binding:"required"`
	Date    string                   `json:"date" binding:"required"`
	Address string                   `json:"address" binding:"required"`
}

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	ID     handlershared.FlexibleID `json:"id" binding:"required"`
	Status string                   `json:"status" binding:"required"`
}

// DeleteOrderRequest 删除订单请求
type DeleteOrderRequest struct {
	ID handlershared.FlexibleID `json:"id"`
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.OrderService.List(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, response.MsgInternal, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	response.Success(c, orders)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.OrderService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules)
		return
	}
	response.Success(c, order)
}

// PlaceOrder 下单
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMappedError(c, service.ErrOrderInvalid, orderPlaceErrorRules)
		return
	}
	order, err := h.OrderService.PlaceOrder(c.Request.Context(), service.PlaceOrderInput{
		ID:      req.ID.String(),
		Date:    req.Date,
		Address: req.Address,
	})
	if err != nil {
		respondWithMappedError(c, err, orderPlaceErrorRules)
		return
	}
	response.WithMessage(c, http.StatusCreated, "Order placed successfully", gin.H{"order": order})
}

// UpdateOrderStatus 更新订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	h.updateOrderStatus(c, func(order *models.Order) interface{} { return order })
}

// LegacyUpdateOrderStatus 旧版 PUT /order_placed，返回旧版订单格式
func (h *Handler) LegacyUpdateOrderStatus(c *gin.Context) {
	h.updateOrderStatus(c, func(order *models.Order) interface{} { return newLegacyOrder(order) })
}

func (h *Handler) updateOrderStatus(c *gin.Context, render func(*models.Order) interface{}) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Both order ID and status are required in the request body", nil)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), req.ID.String(), req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules)
		return
	}
	response.WithMessage(c, http.StatusOK, "Order status updated successfully", gin.H{"updatedOrder": render(order)})
}

// DeleteOrder 删除订单，id 取自请求体或查询参数
func (h *Handler) DeleteOrder(c *gin.Context) {
	var req DeleteOrderRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, response.CodeBadRequest, "Order ID is required", nil)
		return
	}
	id := handlershared.FirstNonEmpty(req.ID.String(), c.Query("id"))
	if err := h.OrderService.Delete(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules)
		return
	}
	response.Message(c, "Order deleted successfully")
}
