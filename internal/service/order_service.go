package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/queue"
	"github.com/dujiao-next/cartflow/internal/repository"
)

// placementAttempts 快照后购物车被修改时的下单重试次数
const placementAttempts = 3

// OrderTaskQueue 订单异步任务出口（queue.Client 实现）
type OrderTaskQueue interface {
	EnqueueOrderEvent(ctx context.Context, payload queue.OrderEventPayload) error
	EnqueuePlacementRecover(ctx context.Context, payload queue.PlacementRecoverPayload, delay time.Duration) error
}

// OrderService 订单服务：下单、状态流转、删除、取消购物车
type OrderService struct {
	store         repository.Store
	tasks         OrderTaskQueue
	recoveryDelay time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(store repository.Store, tasks OrderTaskQueue, recoveryDelay time.Duration) *OrderService {
	return &OrderService{
		store:         store,
		tasks:         tasks,
		recoveryDelay: recoveryDelay,
	}
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	ID      string
	Date    string
	Address string
}

// CancelResult 取消购物车结果
type CancelResult struct {
	CancelledLines int64 `json:"cancelledLines"`
	RemovedItems   int64 `json:"removedItems"`
}

// RecoveryResult 暂存下单修复结果
type RecoveryResult struct {
	Completed int `json:"completed"` // 订单存在，补齐购物车清理
	Restored  int `json:"restored"`  // 订单不存在，项回到购物车
}

// List 订单列表
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.store.Orders().List(ctx)
}

// GetByID 获取订单
func (s *OrderService) GetByID(ctx context.Context, id string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrOrderIDRequired
	}
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// PlaceOrder 将购物车转为订单
//
// 第一阶段在同一事务内写入订单并把购物车项标记到该订单；第二阶段删除已标记的项。
// 第二阶段失败时订单保留，标记项由修复任务或巡检补齐。
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Date = strings.TrimSpace(input.Date)
	input.Address = strings.TrimSpace(input.Address)
	if input.ID == "" || input.Date == "" || input.Address == "" {
		return nil, ErrOrderInvalid
	}
	if !validOrderDate(input.Date) {
		return nil, ErrOrderDateInvalid
	}

	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= placementAttempts; attempt++ {
		order, err = s.stagePlacement(ctx, input)
		if !errors.Is(err, ErrCartChanged) {
			break
		}
		logger.Warnw("order_place_cart_changed", "order_id", input.ID, "attempt", attempt)
	}
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrOrderIDConflict
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.CompletePlacement(ctx, order.ID); err != nil {
		logger.Errorw("order_place_cart_clear_failed",
			"order_id", order.ID,
			"error", err,
		)
		s.scheduleRecovery(ctx, order.ID)
	}
	s.publish(ctx, queue.OrderEventPayload{OrderID: order.ID, Event: constants.OrderEventPlaced, Status: order.Status})
	return order, nil
}

// stagePlacement 下单第一阶段：按快照写入订单并标记快照中的购物车项
//
// 标记数与快照不一致说明购物车在快照后被修改，撤销本次写入并返回 ErrCartChanged。
func (s *OrderService) stagePlacement(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		existing, err := tx.Orders().GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrOrderIDConflict
		}
		items, err := tx.Cart().List(ctx)
		if err != nil {
			return err
		}
		pending := pendingItems(items)
		if len(pending) == 0 {
			return ErrCartEmpty
		}
		order = buildOrder(input, pending)
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		attached, err := tx.Cart().AttachOrder(ctx, order.ID, pending)
		if err != nil {
			return err
		}
		if attached != int64(len(pending)) {
			// 不支持事务的存储需要手动撤销
			if _, err := tx.Cart().DetachOrder(ctx, order.ID); err != nil {
				return err
			}
			if _, err := tx.Orders().Delete(ctx, order.ID); err != nil {
				return err
			}
			return ErrCartChanged
		}
		return nil
	})
	return order, err
}

func buildOrder(input PlaceOrderInput, items []models.CartItem) *models.Order {
	order := &models.Order{
		ID:      input.ID,
		Date:    input.Date,
		Address: input.Address,
		Status:  constants.OrderStatusPending,
		Items:   make([]models.OrderLine, 0, len(items)),
	}
	for _, item := range items {
		order.TotalCost = order.TotalCost.Add(item.LineTotal)
		order.Items = append(order.Items, models.OrderLine{
			OrderID:   input.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
			State:     constants.OrderLineStateActive,
		})
	}
	return order
}

// CompletePlacement 删除已标记到订单的购物车项（下单第二阶段）
func (s *OrderService) CompletePlacement(ctx context.Context, orderID string) (int64, error) {
	return s.store.Cart().DeleteByOrder(ctx, orderID)
}

// RecoverPlacement 处理单个订单的暂存项：订单存在则清理，不存在则放回购物车
func (s *OrderService) RecoverPlacement(ctx context.Context, orderID string) (completed bool, err error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return false, ErrOrderIDRequired
	}
	err = s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order != nil {
			completed = true
			_, err = tx.Cart().DeleteByOrder(ctx, orderID)
			return err
		}
		_, err = tx.Cart().DetachOrder(ctx, orderID)
		return err
	})
	return completed, err
}

// RecoverPendingPlacements 修复所有未完成的下单
func (s *OrderService) RecoverPendingPlacements(ctx context.Context) (RecoveryResult, error) {
	var result RecoveryResult
	items, err := s.store.Cart().List(ctx)
	if err != nil {
		return result, err
	}
	seen := make(map[string]bool)
	for _, item := range items {
		if item.Pending() || seen[item.OrderID] {
			continue
		}
		seen[item.OrderID] = true
		completed, err := s.RecoverPlacement(ctx, item.OrderID)
		if err != nil {
			return result, err
		}
		if completed {
			result.Completed++
		} else {
			result.Restored++
		}
	}
	if result.Completed > 0 || result.Restored > 0 {
		logger.Infow("order_placement_recovered",
			"completed", result.Completed,
			"restored", result.Restored,
		)
	}
	return result, nil
}

// UpdateStatus 更新订单状态，其余字段保持不变
func (s *OrderService) UpdateStatus(ctx context.Context, id string, rawStatus string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrOrderIDRequired
	}
	status, ok := NormalizeOrderStatus(rawStatus)
	if !ok {
		return nil, ErrOrderStatusInvalid
	}
	var order *models.Order
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if _, err := tx.Orders().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		current.Status = status
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.OrderEventPayload{OrderID: id, Event: constants.OrderEventStatusChanged, Status: status})
	return order, nil
}

// Delete 删除订单，仍标记到该订单的购物车项放回购物车
func (s *OrderService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrOrderIDRequired
	}
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		affected, err := tx.Orders().Delete(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderNotFound
		}
		_, err = tx.Cart().DetachOrder(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.OrderEventPayload{OrderID: id, Event: constants.OrderEventDeleted})
	return nil
}

// CancelCart 取消购物车：关联订单的对应行标记为 cancelled，然后清空购物车
//
// 订单本身保留，总金额不重算，库存不回补。
func (s *OrderService) CancelCart(ctx context.Context) (CancelResult, error) {
	var result CancelResult
	cancelledByOrder := make(map[string]int)
	err := s.store.Transaction(ctx, func(ctx context.Context, tx repository.Store) error {
		items, err := tx.Cart().List(ctx)
		if err != nil {
			return err
		}
		byOrder := make(map[string][]models.CartItem)
		var orderIDs []string
		for _, item := range items {
			if item.Pending() {
				continue
			}
			if _, ok := byOrder[item.OrderID]; !ok {
				orderIDs = append(orderIDs, item.OrderID)
			}
			byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
		}
		for _, orderID := range orderIDs {
			order, err := tx.Orders().GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			if order == nil {
				continue
			}
			changed := 0
			for _, item := range byOrder[orderID] {
				if order.FindLine(item.ProductID).Cancel() {
					changed++
				}
			}
			if changed == 0 {
				continue
			}
			if err := tx.Orders().UpdateLines(ctx, order); err != nil {
				return err
			}
			cancelledByOrder[orderID] = changed
			result.CancelledLines += int64(changed)
		}
		removed, err := tx.Cart().Clear(ctx)
		if err != nil {
			return err
		}
		result.RemovedItems = removed
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}
	for orderID, lines := range cancelledByOrder {
		s.publish(ctx, queue.OrderEventPayload{OrderID: orderID, Event: constants.OrderEventLineCancelled, Lines: lines})
	}
	return result, nil
}

func (s *OrderService) scheduleRecovery(ctx context.Context, orderID string) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.EnqueuePlacementRecover(ctx, queue.PlacementRecoverPayload{OrderID: orderID}, s.recoveryDelay); err != nil {
		logger.Errorw("order_enqueue_placement_recover_failed",
			"order_id", orderID,
			"error", err,
		)
	}
}

func (s *OrderService) publish(ctx context.Context, payload queue.OrderEventPayload) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.EnqueueOrderEvent(ctx, payload); err != nil {
		logger.Warnw("order_enqueue_event_failed",
			"order_id", payload.OrderID,
			"event", payload.Event,
			"error", err,
		)
	}
}
