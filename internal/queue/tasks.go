package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dujiao-next/cartflow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderEvent 订单事件通知任务
	TaskOrderEvent = constants.TaskOrderEvent
	// TaskOrderPlacementRecover 下单两阶段修复任务
	TaskOrderPlacementRecover = constants.TaskOrderPlacementRecover
)

// OrderEventPayload 订单事件任务载荷
type OrderEventPayload struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
	Status  string `json:"status,omitempty"`
	Lines   int    `json:"lines,omitempty"` // line_cancelled 事件的取消行数
}

// PlacementRecoverPayload 下单修复任务载荷
type PlacementRecoverPayload struct {
	OrderID string `json:"order_id"`
}

// NewOrderEventTask 创建订单事件任务
func NewOrderEventTask(payload OrderEventPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEvent, body), nil
}

// NewPlacementRecoverTask 创建下单修复任务
func NewPlacementRecoverTask(payload PlacementRecoverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPlacementRecover, body), nil
}

// ParseOrderEventPayload 解析订单事件载荷
func ParseOrderEventPayload(task *asynq.Task) (OrderEventPayload, error) {
	var payload OrderEventPayload
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.OrderID) == "" || strings.TrimSpace(payload.Event) == "" {
		return payload, fmt.Errorf("order event payload missing order_id or event")
	}
	return payload, nil
}

// ParsePlacementRecoverPayload 解析下单修复载荷
func ParsePlacementRecoverPayload(task *asynq.Task) (PlacementRecoverPayload, error) {
	var payload PlacementRecoverPayload
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		return payload, fmt.Errorf("placement recover payload missing order_id")
	}
	return payload, nil
}
