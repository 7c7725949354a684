package repository

import (
	"context"
	"time"

	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"
)

// fileProductRepository 商品集合
type fileProductRepository struct {
	session fileSession
}

func (r *fileProductRepository) List(_ context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.session.read(func(st *fileState) error {
		products = append(make([]models.Product, 0, len(st.products)), st.products...)
		return nil
	})
	return products, err
}

func (r *fileProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	var found *models.Product
	err := r.session.read(func(st *fileState) error {
		for i := range st.products {
			if st.products[i].ID == id {
				product := st.products[i]
				found = &product
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *fileProductRepository) Create(_ context.Context, product *models.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	return r.session.write(func(st *fileState) error {
		for i := range st.products {
			if st.products[i].ID == product.ID {
				return ErrDuplicateKey
			}
		}
		st.products = append(st.products, *product)
		return nil
	}, constants.CollectionProducts)
}

func (r *fileProductRepository) Update(_ context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	return r.session.write(func(st *fileState) error {
		for i := range st.products {
			if st.products[i].ID == product.ID {
				st.products[i] = *product
				return nil
			}
		}
		st.products = append(st.products, *product)
		return nil
	}, constants.CollectionProducts)
}

func (r *fileProductRepository) Delete(_ context.Context, id string) (int64, error) {
	var affected int64
	err := r.session.write(func(st *fileState) error {
		kept := st.products[:0]
		for _, product := range st.products {
			if product.ID == id {
				affected++
				continue
			}
			kept = append(kept, product)
		}
		if affected == 0 {
			return errUnchanged
		}
		st.products = kept
		return nil
	}, constants.CollectionProducts)
	return affected, err
}

// fileCartRepository 购物车集合
type fileCartRepository struct {
	session fileSession
}

func (r *fileCartRepository) List(_ context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.session.read(func(st *fileState) error {
		items = append(make([]models.CartItem, 0, len(st.cart)), st.cart...)
		return nil
	})
	return items, err
}

func (r *fileCartRepository) Upsert(_ context.Context, productID string, quantity int, unitPrice models.Money) (*models.CartItem, error) {
	var result models.CartItem
	now := time.Now()
	err := r.session.write(func(st *fileState) error {
		subtotal := unitPrice.Mul(quantity)
		for i := range st.cart {
			item := &st.cart[i]
			if item.ProductID == productID && item.Pending() {
				total, ok := models.AddQuantity(item.Quantity, quantity)
				if !ok {
					return ErrQuantityOverflow
				}
				item.Quantity = total
				item.LineTotal = item.LineTotal.Add(subtotal)
				item.UpdatedAt = now
				result = *item
				return nil
			}
		}
		result = models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			LineTotal: subtotal,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.cart = append(st.cart, result)
		return nil
	}, constants.CollectionCart)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *fileCartRepository) AttachOrder(_ context.Context, orderID string, snapshot []models.CartItem) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	want := snapshotQuantities(snapshot)
	var affected int64
	now := time.Now()
	err := r.session.write(func(st *fileState) error {
		for i := range st.cart {
			item := &st.cart[i]
			if qty, ok := want[item.ProductID]; ok && item.Pending() && item.Quantity == qty {
				item.OrderID = orderID
				item.UpdatedAt = now
				affected++
			}
		}
		if affected == 0 {
			return errUnchanged
		}
		return nil
	}, constants.CollectionCart)
	return affected, err
}

func (r *fileCartRepository) DetachOrder(_ context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	var affected int64
	now := time.Now()
	err := r.session.write(func(st *fileState) error {
		result := make([]models.CartItem, 0, len(st.cart))
		pendingIndex := make(map[string]int)
		for _, item := range st.cart {
			if item.OrderID == orderID {
				continue
			}
			if item.Pending() {
				pendingIndex[item.ProductID] = len(result)
			}
			result = append(result, item)
		}
		for _, item := range st.cart {
			if item.OrderID != orderID {
				continue
			}
			affected++
			if idx, ok := pendingIndex[item.ProductID]; ok {
				// 合并到同商品的未暂存项
				total, ok := models.AddQuantity(result[idx].Quantity, item.Quantity)
				if !ok {
					return ErrQuantityOverflow
				}
				result[idx].Quantity = total
				result[idx].LineTotal = result[idx].LineTotal.Add(item.LineTotal)
				result[idx].UpdatedAt = now
				continue
			}
			item.OrderID = ""
			item.UpdatedAt = now
			pendingIndex[item.ProductID] = len(result)
			result = append(result, item)
		}
		if affected == 0 {
			return errUnchanged
		}
		st.cart = result
		return nil
	}, constants.CollectionCart)
	return affected, err
}

func (r *fileCartRepository) DeleteByOrder(_ context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	var affected int64
	err := r.session.write(func(st *fileState) error {
		kept := make([]models.CartItem, 0, len(st.cart))
		for _, item := range st.cart {
			if item.OrderID == orderID {
				affected++
				continue
			}
			kept = append(kept, item)
		}
		if affected == 0 {
			return errUnchanged
		}
		st.cart = kept
		return nil
	}, constants.CollectionCart)
	return affected, err
}

func (r *fileCartRepository) Clear(_ context.Context) (int64, error) {
	var affected int64
	err := r.session.write(func(st *fileState) error {
		affected = int64(len(st.cart))
		if affected == 0 {
			return errUnchanged
		}
		st.cart = []models.CartItem{}
		return nil
	}, constants.CollectionCart)
	return affected, err
}

// snapshotQuantities 快照中未暂存项的商品与数量
func snapshotQuantities(snapshot []models.CartItem) map[string]int {
	want := make(map[string]int, len(snapshot))
	for _, item := range snapshot {
		if item.Pending() {
			want[item.ProductID] = item.Quantity
		}
	}
	return want
}

// fileOrderRepository 订单集合
type fileOrderRepository struct {
	session fileSession
}

func (r *fileOrderRepository) List(_ context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.session.read(func(st *fileState) error {
		orders = make([]models.Order, 0, len(st.orders))
		for _, order := range st.orders {
			orders = append(orders, order.Clone())
		}
		return nil
	})
	return orders, err
}

func (r *fileOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	var found *models.Order
	err := r.session.read(func(st *fileState) error {
		for i := range st.orders {
			if st.orders[i].ID == id {
				order := st.orders[i].Clone()
				found = &order
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *fileOrderRepository) Create(_ context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return r.session.write(func(st *fileState) error {
		for i := range st.orders {
			if st.orders[i].ID == order.ID {
				return ErrDuplicateKey
			}
		}
		st.orders = append(st.orders, order.Clone())
		return nil
	}, constants.CollectionOrders)
}

func (r *fileOrderRepository) UpdateStatus(_ context.Context, id string, status string) (int64, error) {
	var affected int64
	err := r.session.write(func(st *fileState) error {
		for i := range st.orders {
			if st.orders[i].ID == id {
				st.orders[i].Status = status
				affected++
			}
		}
		if affected == 0 {
			return errUnchanged
		}
		return nil
	}, constants.CollectionOrders)
	return affected, err
}

func (r *fileOrderRepository) UpdateLines(_ context.Context, order *models.Order) error {
	if order == nil {
		return nil
	}
	return r.session.write(func(st *fileState) error {
		for i := range st.orders {
			if st.orders[i].ID != order.ID {
				continue
			}
			for _, line := range order.Items {
				if stored := st.orders[i].FindLine(line.ProductID); stored != nil {
					stored.State = line.State
				}
			}
		}
		return nil
	}, constants.CollectionOrders)
}

func (r *fileOrderRepository) Delete(_ context.Context, id string) (int64, error) {
	var affected int64
	err := r.session.write(func(st *fileState) error {
		kept := make([]models.Order, 0, len(st.orders))
		for _, order := range st.orders {
			if order.ID == id {
				affected++
				continue
			}
			kept = append(kept, order)
		}
		if affected == 0 {
			return errUnchanged
		}
		st.orders = kept
		return nil
	}, constants.CollectionOrders)
	return affected, err
}

// fileSequenceRepository 序列集合
type fileSequenceRepository struct {
	session fileSession
}

func (r *fileSequenceRepository) Next(_ context.Context, name string) (int64, error) {
	var value int64
	err := r.session.write(func(st *fileState) error {
		for i := range st.sequences {
			if st.sequences[i].Name == name {
				st.sequences[i].Value++
				value = st.sequences[i].Value
				return nil
			}
		}
		st.sequences = append(st.sequences, models.Sequence{Name: name, Value: 1})
		value = 1
		return nil
	}, constants.CollectionSequences)
	return value, err
}
