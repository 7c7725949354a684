package worker

import (
	"context"

	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/provider"
	"github.com/dujiao-next/cartflow/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderEvent, c.handleOrderEvent)
	mux.HandleFunc(queue.TaskOrderPlacementRecover, c.handlePlacementRecover)
}

// handleOrderEvent 订单事件通知出口，目前写结构化日志
func (c *Consumer) handleOrderEvent(_ context.Context, task *asynq.Task) error {
	payload, err := queue.ParseOrderEventPayload(task)
	if err != nil {
		logger.Warnw("worker_order_event_invalid_payload", "error", err)
		return asynq.SkipRetry
	}
	logger.Infow("order_event",
		"order_id", payload.OrderID,
		"event", payload.Event,
		"status", payload.Status,
		"lines", payload.Lines,
	)
	return nil
}

func (c *Consumer) handlePlacementRecover(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.OrderService == nil {
		logger.Debugw("worker_placement_recover_skip_nil", "consumer_nil", c == nil)
		return nil
	}
	payload, err := queue.ParsePlacementRecoverPayload(task)
	if err != nil {
		logger.Warnw("worker_placement_recover_invalid_payload", "error", err)
		return asynq.SkipRetry
	}
	completed, err := c.OrderService.RecoverPlacement(ctx, payload.OrderID)
	if err != nil {
		logger.Warnw("worker_placement_recover_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Infow("worker_placement_recovered", "order_id", payload.OrderID, "completed", completed)
	return nil
}
