package public

import (
	"strings"

	handlershared "github.com/dujiao-next/cartflow/internal/http/handlers/shared"
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	ID          handlershared.FlexibleID `json:"id"`
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description" binding:"required"`
	Price       *models.Money            `json:"price" binding:"required"`
	Stock       *int                     `json:"stock" binding:"required,min=0"`
	ImageURL    string                   `json:"imageUrl" binding:"required"`
}

// UpdateProductRequest 更新商品请求（部分字段）
type UpdateProductRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Price       *models.Money `json:"price"`
	Stock       *int          `json:"stock" binding:"omitempty,min=0"`
	ImageURL    *string       `json:"imageUrl"`
}

// GetProducts 商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.ProductService.List(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, response.MsgInternal, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	response.Success(c, products)
}

// GetProduct 商品详情（路径参数）
func (h *Handler) GetProduct(c *gin.Context) {
	h.getProduct(c, c.Param("id"))
}

// GetProductByQuery 商品详情（查询参数 id）
func (h *Handler) GetProductByQuery(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "Product ID is required in the query parameters", nil)
		return
	}
	h.getProduct(c, id)
}

func (h *Handler) getProduct(c *gin.Context, id string) {
	product, err := h.ProductService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMappedError(c, service.ErrProductInvalid, productErrorRules)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), service.CreateProductInput{
		ID:          req.ID.String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品（浅合并）
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithMappedError(c, service.ErrProductInvalid, productErrorRules)
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), c.Param("id"), service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品（路径参数）
func (h *Handler) DeleteProduct(c *gin.Context) {
	h.deleteProduct(c, c.Param("id"))
}

// DeleteProductByQuery 删除商品（查询参数 id）
func (h *Handler) DeleteProductByQuery(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "Invalid or missing product ID", nil)
		return
	}
	h.deleteProduct(c, id)
}

func (h *Handler) deleteProduct(c *gin.Context, id string) {
	if err := h.ProductService.Delete(c.Request.Context(), id); err != nil {
		respondWithMappedError(c, err, productErrorRules)
		return
	}
	response.Message(c, "Product deleted successfully")
}
