package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 订单事件
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 下单修复
	CriticalQueue = constants.QueueCritical

	defaultMaxRetry     = 3
	eventTaskTimeout    = 30 * time.Second
	recoverTaskTimeout  = time.Minute
	workerShutdownGrace = 8 * time.Second
)

// Client 任务投递；未启用队列时所有投递都是空操作
type Client struct {
	client    *asynq.Client
	maxRetry  int
	retention time.Duration
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	maxRetry := cfg.MaxRetry
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	var retention time.Duration
	if cfg.EventRetentionHours > 0 {
		retention = time.Duration(cfg.EventRetentionHours) * time.Hour
	}
	return &Client{
		client:    asynq.NewClient(buildRedisOpt(cfg)),
		maxRetry:  maxRetry,
		retention: retention,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderEvent 投递订单事件
func (c *Client) EnqueueOrderEvent(ctx context.Context, payload OrderEventPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderEventTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, c.orderEventOptions()...)
	return err
}

func (c *Client) orderEventOptions() []asynq.Option {
	opts := []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(eventTaskTimeout),
	}
	if c.retention > 0 {
		opts = append(opts, asynq.Retention(c.retention))
	}
	return opts
}

// EnqueuePlacementRecover 延迟投递下单修复，同一订单同时只保留一个任务
func (c *Client) EnqueuePlacementRecover(ctx context.Context, payload PlacementRecoverPayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if delay < 0 {
		delay = 0
	}
	task, err := NewPlacementRecoverTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.Timeout(recoverTaskTimeout),
		asynq.TaskID(PlacementRecoverTaskID(payload.OrderID)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// PlacementRecoverTaskID 修复任务去重 ID
func PlacementRecoverTaskID(orderID string) string {
	return TaskOrderPlacementRecover + ":" + strings.TrimSpace(orderID)
}

// BuildServerConfig 生成消费端配置；权重不大于 0 的队列会被忽略
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		for name, weight := range cfg.Queues {
			if name = strings.TrimSpace(name); name != "" && weight > 0 {
				queues[name] = weight
			}
		}
	}
	if len(queues) == 0 {
		queues = map[string]int{CriticalQueue: 2, DefaultQueue: 1}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency:     concurrency,
		Queues:          queues,
		ShutdownTimeout: workerShutdownGrace,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
