package worker

import (
	"github.com/dujiao-next/cartflow/internal/logger"
)

// asynqLogger 将 asynq 内部日志接入 zap
type asynqLogger struct{}

func newAsynqLogger() *asynqLogger {
	return &asynqLogger{}
}

func (asynqLogger) Debug(args ...interface{}) { logger.SW("component", "asynq").Debug(args...) }

func (asynqLogger) Info(args ...interface{}) { logger.SW("component", "asynq").Info(args...) }

func (asynqLogger) Warn(args ...interface{}) { logger.SW("component", "asynq").Warn(args...) }

func (asynqLogger) Error(args ...interface{}) { logger.SW("component", "asynq").Error(args...) }

func (asynqLogger) Fatal(args ...interface{}) { logger.SW("component", "asynq").Fatal(args...) }
