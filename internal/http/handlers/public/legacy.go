package public

import "github.com/dujiao-next/cartflow/internal/models"

// LegacyCartItem 旧版购物车项：id 为商品ID，price 为小计
type LegacyCartItem struct {
	ID       string       `json:"id"`
	Quantity int          `json:"quantity"`
	Price    models.Money `json:"price"`
}

// LegacyOrder 旧版订单，购物车快照放在 products
type LegacyOrder struct {
	ID        string           `json:"id"`
	Date      string           `json:"date"`
	Address   string           `json:"address"`
	Status    string           `json:"status"`
	TotalCost models.Money     `json:"totalCost"`
	Products  []LegacyCartItem `json:"products"`
}

func newLegacyCartItem(item models.CartItem) LegacyCartItem {
	return LegacyCartItem{ID: item.ProductID, Quantity: item.Quantity, Price: item.LineTotal}
}

func newLegacyOrder(order *models.Order) LegacyOrder {
	legacy := LegacyOrder{
		ID:        order.ID,
		Date:      order.Date,
		Address:   order.Address,
		Status:    order.Status,
		TotalCost: order.TotalCost,
		Products:  make([]LegacyCartItem, 0, len(order.Items)),
	}
	// 旧版格式没有行状态，与 totalCost 一致列出全部行
	for _, line := range order.Items {
		legacy.Products = append(legacy.Products, LegacyCartItem{
			ID:       line.ProductID,
			Quantity: line.Quantity,
			Price:    line.LineTotal,
		})
	}
	return legacy
}
