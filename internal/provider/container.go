package provider

import (
	"github.com/dujiao-next/cartflow/internal/cache"
	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/queue"
	"github.com/dujiao-next/cartflow/internal/repository"
	"github.com/dujiao-next/cartflow/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Store       repository.Store

	// Services
	ProductService *service.ProductService
	CartService    *service.CartService
	OrderService   *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, store repository.Store) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时为空操作客户端）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Store:       store,
	}

	c.initServices()

	return c
}

func (c *Container) initServices() {
	c.ProductService = service.NewProductService(c.Store)
	c.CartService = service.NewCartService(c.Store)
	c.OrderService = service.NewOrderService(c.Store, c.QueueClient, c.Config.Order.RecoveryDelay())
}

// Close 释放队列与缓存连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
