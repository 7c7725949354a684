package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dujiao-next/cartflow/internal/cache"
	"github.com/dujiao-next/cartflow/internal/config"
	publichandlers "github.com/dujiao-next/cartflow/internal/http/handlers/public"
	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cf"
	}
	writeLimit := RateLimitMiddleware(cache.Client(), RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}, KeyByIPAndMethod)

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log, "/healthz"))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", h.Healthz)

	// 商品
	products := r.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", writeLimit, h.CreateProduct)
		products.PUT("/:id", writeLimit, h.UpdateProduct)
		products.DELETE("/:id", writeLimit, h.DeleteProduct)
	}

	// 购物车
	cart := r.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/checkout", writeLimit, h.Checkout)
		cart.POST("/add", writeLimit, h.AddToCart)
		cart.POST("/cancel", writeLimit, h.CancelCart)
	}

	// 订单
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/order", writeLimit, h.PlaceOrder)
	r.PUT("/order-status", writeLimit, h.UpdateOrderStatus)
	r.DELETE("/order", writeLimit, h.DeleteOrder)

	registerLegacyRoutes(r, h, writeLimit)

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})

	if gin.IsDebugging() {
		for _, route := range RouteCatalog(r) {
			log.Debug("route_registered " + route)
		}
	}
	return r
}

// registerLegacyRoutes 旧版客户端使用的别名，/checkout 与 /order_placed 返回旧版字段
func registerLegacyRoutes(r *gin.Engine, h *publichandlers.Handler, writeLimit gin.HandlerFunc) {
	r.GET("/search_all", h.GetProducts)
	r.GET("/search", h.GetProducts)
	r.GET("/search_product_by_id", h.GetProductByQuery)
	r.POST("/products_add", writeLimit, h.CreateProduct)
	r.POST("/create_product", writeLimit, h.CreateProduct)
	r.POST("/checkout", writeLimit, h.LegacyCheckout)
	r.PUT("/order_placed", writeLimit, h.LegacyUpdateOrderStatus)
	r.DELETE("/delete-order", writeLimit, h.DeleteOrder)
	r.DELETE("/delete_order", writeLimit, h.DeleteOrder)
	r.DELETE("/delete_product", writeLimit, h.DeleteProductByQuery)
	r.DELETE("/cancel", writeLimit, h.CancelCart)
}

// RouteCatalog 已注册路由列表（METHOD PATH，排序后去重）
func RouteCatalog(engine *gin.Engine) []string {
	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]string, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		entry := method + " " + item.Path
		if _, exists := seen[entry]; exists {
			continue
		}
		seen[entry] = struct{}{}
		items = append(items, entry)
	}
	sort.Strings(items)
	return items
}
