package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration // 为 0 时取 server.shutdown_timeout_seconds
	Mode            string
}

// ParseMode 规范化命令行传入的模式，空值视为 all
func ParseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		return ModeAll, nil
	}
	if !validMode(mode) {
		return "", fmt.Errorf("unsupported mode: %s (want all, api or worker)", raw)
	}
	return mode, nil
}

func validMode(mode string) bool {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	default:
		return false
	}
}

// runsHTTP 模式是否包含 API 服务
func runsHTTP(mode string) bool {
	return mode == ModeAll || mode == ModeAPI
}

// runsWorker 模式是否包含队列消费
func runsWorker(mode string) bool {
	return mode == ModeAll || mode == ModeWorker
}

func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		if opts.Config != nil {
			opts.ShutdownTimeout = opts.Config.Server.ShutdownTimeout()
		} else {
			opts.ShutdownTimeout = 10 * time.Second
		}
	}
	if mode, err := ParseMode(opts.Mode); err == nil {
		opts.Mode = mode
	}
	return opts
}
