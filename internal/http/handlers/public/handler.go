package public

import "github.com/dujiao-next/cartflow/internal/provider"

// Handler 商品、购物车、订单接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
