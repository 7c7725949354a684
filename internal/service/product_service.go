package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dujiao-next/cartflow/internal/cache"
	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/repository"
)

// ProductService 商品目录服务
type ProductService struct {
	store repository.Store
}

// NewProductService 创建商品服务
func NewProductService(store repository.Store) *ProductService {
	return &ProductService{store: store}
}

// CreateProductInput 创建商品输入，指针字段用于区分缺失与零值
type CreateProductInput struct {
	ID          string
	Name        string
	Description string
	Price       *models.Money
	Stock       *int
	ImageURL    string
}

// UpdateProductInput 更新商品输入，仅覆盖非空字段
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *models.Money
	Stock       *int
	ImageURL    *string
}

func (in CreateProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.ImageURL) == "" {
		return ErrProductInvalid
	}
	if in.Price == nil || in.Price.IsNegative() || in.Stock == nil || *in.Stock < 0 {
		return ErrProductInvalid
	}
	return nil
}

func (in UpdateProductInput) validate() error {
	for _, field := range []*string{in.Name, in.Description, in.ImageURL} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return ErrProductInvalid
		}
	}
	if in.Price != nil && in.Price.IsNegative() {
		return ErrProductInvalid
	}
	if in.Stock != nil && *in.Stock < 0 {
		return ErrProductInvalid
	}
	return nil
}

// List 商品列表
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	if products, hit, err := cache.GetProductList(ctx); err != nil {
		logger.Warnw("product_cache_read_failed", "key", "list", "error", err)
	} else if hit {
		return products, nil
	}
	products, err := s.store.Products().List(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetProductList(ctx, products); err != nil {
		logger.Warnw("product_cache_write_failed", "key", "list", "error", err)
	}
	return products, nil
}

// GetByID 获取商品
func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrProductNotFound
	}
	if product, hit, err := cache.GetProduct(ctx, id); err != nil {
		logger.Warnw("product_cache_read_failed", "product_id", id, "error", err)
	} else if hit {
		return product, nil
	}
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := cache.SetProduct(ctx, product); err != nil {
		logger.Warnw("product_cache_write_failed", "product_id", id, "error", err)
	}
	return product, nil
}

// Create 创建商品，未指定 ID 时按序列生成
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{
		ID:          strings.TrimSpace(input.ID),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       models.NewMoneyFromDecimal(input.Price.Decimal),
		Stock:       *input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}

	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if product.ID != "" {
			existing, err := tx.Products().GetByID(ctx, product.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrProductIDConflict
			}
		} else {
			id, err := nextProductID(ctx, tx)
			if err != nil {
				return err
			}
			product.ID = id
		}
		return tx.Products().Create(ctx, product)
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrProductIDConflict
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

// nextProductID 取下一个未被占用的序列值
func nextProductID(ctx context.Context, tx repository.Store) (string, error) {
	for {
		value, err := tx.Sequences().Next(ctx, constants.SequenceProductID)
		if err != nil {
			return "", err
		}
		id := strconv.FormatInt(value, 10)
		existing, err := tx.Products().GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
}

// Update 浅合并更新商品字段，ID 不可修改
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrProductNotFound
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	var updated *models.Product
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		product, err := tx.Products().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if input.Name != nil {
			product.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			product.Description = strings.TrimSpace(*input.Description)
		}
		if input.Price != nil {
			product.Price = models.NewMoneyFromDecimal(input.Price.Decimal)
		}
		if input.Stock != nil {
			product.Stock = *input.Stock
		}
		if input.ImageURL != nil {
			product.ImageURL = strings.TrimSpace(*input.ImageURL)
		}
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrProductNotFound
	}
	affected, err := s.store.Products().Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if err := cache.InvalidateProduct(ctx, id); err != nil {
		logger.Warnw("product_cache_invalidate_failed", "product_id", id, "error", err)
	}
}
