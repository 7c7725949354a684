package cache

import (
	"context"

	"github.com/dujiao-next/cartflow/internal/models"
)

const productListKey = "product:list"

func productKey(id string) string {
	return "product:" + id
}

// GetProduct 读取商品缓存
func GetProduct(ctx context.Context, id string) (*models.Product, bool, error) {
	var product models.Product
	hit, err := GetJSON(ctx, productKey(id), &product)
	if err != nil || !hit {
		return nil, false, err
	}
	return &product, true, nil
}

// SetProduct 写入商品缓存
func SetProduct(ctx context.Context, product *models.Product) error {
	if product == nil {
		return nil
	}
	return SetJSON(ctx, productKey(product.ID), product, productTTL)
}

// GetProductList 读取商品列表缓存
func GetProductList(ctx context.Context) ([]models.Product, bool, error) {
	var products []models.Product
	hit, err := GetJSON(ctx, productListKey, &products)
	if err != nil || !hit {
		return nil, false, err
	}
	return products, true, nil
}

// SetProductList 写入商品列表缓存
func SetProductList(ctx context.Context, products []models.Product) error {
	return SetJSON(ctx, productListKey, products, productTTL)
}

// InvalidateProduct 商品变更后清除单品与列表缓存
func InvalidateProduct(ctx context.Context, id string) error {
	return Del(ctx, productKey(id), productListKey)
}
