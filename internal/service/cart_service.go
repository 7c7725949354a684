package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/repository"
)

// CartService 购物车服务
type CartService struct {
	store repository.Store
}

// NewCartService 创建购物车服务
func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store}
}

// CheckoutInput 加入购物车输入
type CheckoutInput struct {
	ProductID string
	Quantity  int
}

// List 当前购物车内容（不含已暂存到订单的项）
func (s *CartService) List(ctx context.Context) ([]models.CartItem, error) {
	items, err := s.store.Cart().List(ctx)
	if err != nil {
		return nil, err
	}
	return pendingItems(items), nil
}

// Checkout 校验库存后加入购物车，同商品累加数量与小计
//
// 库存只做校验不扣减。
func (s *CartService) Checkout(ctx context.Context, input CheckoutInput) (*models.CartItem, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" || input.Quantity <= 0 {
		return nil, ErrCartItemInvalid
	}
	var item *models.CartItem
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		product, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if input.Quantity > product.Stock {
			return ErrStockInsufficient
		}
		item, err = tx.Cart().Upsert(ctx, productID, input.Quantity, product.Price)
		return err
	})
	if errors.Is(err, repository.ErrQuantityOverflow) {
		return nil, ErrCartItemInvalid
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func pendingItems(items []models.CartItem) []models.CartItem {
	pending := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Pending() {
			pending = append(pending, item)
		}
	}
	return pending
}
