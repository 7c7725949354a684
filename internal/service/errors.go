package service

import "errors"

// 商品
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInvalid    = errors.New("name, description, price, stock and imageUrl are required; price and stock must not be negative")
	ErrProductIDConflict = errors.New("product id already exists")
)

// 购物车
var (
	ErrCartItemInvalid   = errors.New("productId and a positive quantity are required")
	ErrStockInsufficient = errors.New("requested quantity exceeds available stock")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartChanged       = errors.New("cart changed while placing the order, please retry")
)

// 订单
var (
	ErrOrderInvalid       = errors.New("id, date and address are required")
	ErrOrderIDRequired    = errors.New("order id is required")
	ErrOrderDateInvalid   = errors.New("date must be YYYY-MM-DD or RFC 3339")
	ErrOrderIDConflict    = errors.New("order id already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("status must be one of pending, processing, shipped, delivered")
)
