package queue

import (
	"context"
	"testing"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/constants"

	"github.com/hibiken/asynq"
)

func TestOrderEventTaskRoundTrip(t *testing.T) {
	task, err := NewOrderEventTask(OrderEventPayload{OrderID: "o1", Event: constants.OrderEventStatusChanged, Status: "shipped"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderEvent {
		t.Fatalf("task type want %s got %s", TaskOrderEvent, task.Type())
	}
	payload, err := ParseOrderEventPayload(task)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if payload.OrderID != "o1" || payload.Status != "shipped" {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestParsePayloadRejectsMissingOrderID(t *testing.T) {
	if _, err := ParsePlacementRecoverPayload(asynq.NewTask(TaskOrderPlacementRecover, []byte(`{}`))); err == nil {
		t.Fatalf("expected error for empty order id")
	}
	if _, err := ParseOrderEventPayload(asynq.NewTask(TaskOrderEvent, []byte(`{"order_id":"o1"}`))); err == nil {
		t.Fatalf("expected error for empty event")
	}
	if _, err := ParseOrderEventPayload(asynq.NewTask(TaskOrderEvent, []byte(`not-json`))); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	ctx := context.Background()
	if err := client.EnqueueOrderEvent(ctx, OrderEventPayload{OrderID: "o1", Event: "placed"}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueuePlacementRecover(ctx, PlacementRecoverPayload{OrderID: "o1"}, time.Second); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 2 {
		t.Fatalf("server config unexpected: %+v", cfg)
	}
}

func TestBuildServerConfigDropsInvalidQueues(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{
		Host:        " redis ",
		Port:        6380,
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{CriticalQueue: 5, "": 3, "paused": 0},
	})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("redis opt unexpected: %+v", opt)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("concurrency want 4 got %d", cfg.Concurrency)
	}
	if len(cfg.Queues) != 1 || cfg.Queues[CriticalQueue] != 5 {
		t.Fatalf("queues want only critical=5 got %+v", cfg.Queues)
	}

	_, cfg = BuildServerConfig(&config.QueueConfig{Queues: map[string]int{"paused": 0}})
	if cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("all-invalid queues should fall back to defaults, got %+v", cfg.Queues)
	}
}

func TestOrderEventOptionsHonorRetention(t *testing.T) {
	c := &Client{maxRetry: 5}
	if got := len(c.orderEventOptions()); got != 3 {
		t.Fatalf("options without retention want 3 got %d", got)
	}
	c.retention = time.Hour
	if got := len(c.orderEventOptions()); got != 4 {
		t.Fatalf("options with retention want 4 got %d", got)
	}
	if PlacementRecoverTaskID(" o1 ") != TaskOrderPlacementRecover+":o1" {
		t.Fatalf("task id should trim order id, got %s", PlacementRecoverTaskID(" o1 "))
	}
}
