package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可启停的长驻服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// CloseFunc 服务全部停止后释放资源
type CloseFunc func(ctx context.Context) error

type namedCloser struct {
	name string
	fn   CloseFunc
}

type serviceExit struct {
	name string
	err  error
}

// Runner 并行启动服务，任一服务退出或 ctx 结束后整体停机
type Runner struct {
	services []Service
	closers  []namedCloser
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// AddCloser 注册资源释放函数，按注册顺序执行
func (r *Runner) AddCloser(name string, fn CloseFunc) {
	if r == nil || fn == nil {
		return
	}
	r.closers = append(r.closers, namedCloser{name: name, fn: fn})
}

// RunWithOptions 运行服务并在收到信号时停机
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 阻塞到第一个服务退出或 ctx 结束；返回首个服务错误，ctx 取消视为正常退出
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for _, svc := range r.services {
		if svc == nil {
			return errors.New("service is nil")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(runCtx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			exits <- serviceExit{name: svc.Name(), err: err}
		}(svc)
	}

	var runErr error
	select {
	case <-runCtx.Done():
		runErr = runCtx.Err()
	case exit := <-exits:
		runErr = exit.err
		if runErr == nil {
			log.Infow("service_stopped_early", "service", exit.name)
		}
	}
	cancel()

	r.shutdown(stopTimeout, log)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// shutdown 逆序停止服务后按注册顺序释放资源，共用同一个超时
func (r *Runner) shutdown(timeout time.Duration, log *zap.SugaredLogger) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		begin := time.Now()
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			continue
		}
		log.Infow("service_stop", "service", svc.Name(), "elapsed_ms", time.Since(begin).Milliseconds())
	}
	for _, closer := range r.closers {
		if err := closer.fn(stopCtx); err != nil {
			log.Errorw("resource_close_failed", "resource", closer.name, "error", err)
		}
	}
}
