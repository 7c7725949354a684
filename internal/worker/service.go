package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 队列消费 + 未完成下单巡检
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	interval time.Duration

	mu          sync.Mutex // 保护下面的巡检状态
	stopped     bool
	sweepCancel context.CancelFunc
	sweepWG     sync.WaitGroup
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, orderCfg config.OrderConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = newAsynqLogger()
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(logTaskFailure)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:   asynq.NewServer(opt, serverCfg),
		mux:      mux,
		consumer: consumer,
		interval: orderCfg.RecoveryInterval(),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束；信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	s.startSweep(ctx)
	<-ctx.Done()
	return nil
}

// Stop 停止巡检后关闭消费者，等待进行中的任务结束
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.stopped = true
	cancel := s.sweepCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		s.sweepWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warnw("worker_sweep_stop_timeout", "error", ctx.Err())
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

func (s *Service) startSweep(parent context.Context) {
	if s.consumer == nil || s.consumer.Container == nil || s.consumer.OrderService == nil {
		return
	}
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.sweepCancel = cancel
	s.sweepWG.Add(1)
	go func() {
		defer s.sweepWG.Done()
		s.sweep(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	logger.Warnw("worker_task_failed",
		"task_type", task.Type(),
		"task_id", taskID,
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

// sweep 补齐未完成的下单
func (s *Service) sweep(ctx context.Context) {
	if _, err := s.consumer.OrderService.RecoverPendingPlacements(ctx); err != nil && ctx.Err() == nil {
		logger.Warnw("worker_placement_sweep_failed", "error", err)
	}
}
