package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/provider"
	"github.com/dujiao-next/cartflow/internal/repository"
	"github.com/dujiao-next/cartflow/internal/router"
	"github.com/dujiao-next/cartflow/internal/worker"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BuildRunner 构建服务运行器
func BuildRunner(ctx context.Context, cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, errors.New("worker mode requires queue.enabled")
	}
	if mode != ModeAll && repository.SingleProcess(cfg.Store.Driver) {
		return nil, fmt.Errorf("%s mode runs as a separate process and needs a shared store; the file store only supports mode %s", mode, ModeAll)
	}

	store, err := repository.OpenStore(ctx, cfg.Store, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	container := provider.NewContainer(cfg, store)

	// 启动时补齐上次中断的下单
	if result, err := container.OrderService.RecoverPendingPlacements(ctx); err != nil {
		logger.Warnw("startup_placement_recovery_failed", "error", err)
	} else if result.Completed+result.Restored > 0 {
		logger.Infow("startup_placement_recovered",
			"completed", result.Completed,
			"restored", result.Restored,
		)
	}

	var services []Service

	// 初始化 HTTP 服务
	if runsHTTP(mode) {
		engine := router.SetupRouter(cfg, container)
		var handler http.Handler = engine
		if cfg.Server.Tracing {
			handler = otelhttp.NewHandler(engine, "cartflow-http")
		}
		services = append(services, NewHTTPService(cfg.Server, handler))
	}

	// 初始化 Worker 服务（队列未启用时 all 模式仅运行 HTTP）
	if runsWorker(mode) && cfg.Queue.Enabled {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, cfg.Order, consumer)
		if err != nil {
			closeQuietly(ctx, container, store)
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Infow("worker_skipped", "reason", "queue_disabled")
	}

	if len(services) == 0 {
		closeQuietly(ctx, container, store)
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.AddCloser("container", func(context.Context) error {
		container.Close()
		return nil
	})
	runner.AddCloser("store", store.Close)
	return runner, nil
}

func closeQuietly(ctx context.Context, container *provider.Container, store repository.Store) {
	container.Close()
	if err := store.Close(ctx); err != nil {
		logger.Warnw("store_close_failed", "error", err)
	}
}

// Run 应用启动入口
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	opts.Mode = mode
	opts = normalizeOptions(opts)

	runner, err := BuildRunner(context.Background(), opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Addr(),
		"mode", opts.Mode,
		"store", opts.Config.Store.Driver,
	)
	return RunWithOptions(runner, opts)
}
