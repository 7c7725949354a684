package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore MongoDB 实现，每类数据一个集合
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewMongoStore 基于已连接的客户端创建存储并建立索引
func NewMongoStore(ctx context.Context, client *mongo.Client, database string, transactions bool) (*MongoStore, error) {
	if client == nil {
		return nil, errors.New("mongo client is nil")
	}
	s := &MongoStore{
		client:       client,
		db:           client.Database(database),
		transactions: transactions,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(constants.CollectionCart).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_cart_product_order"),
	})
	if err != nil {
		return fmt.Errorf("create cart index: %w", err)
	}
	return nil
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Products 商品仓库
func (s *MongoStore) Products() ProductRepository {
	return &mongoProductRepository{coll: s.collection(constants.CollectionProducts)}
}

// Cart 购物车仓库
func (s *MongoStore) Cart() CartRepository {
	return &mongoCartRepository{coll: s.collection(constants.CollectionCart)}
}

// Orders 订单仓库
func (s *MongoStore) Orders() OrderRepository {
	return &mongoOrderRepository{coll: s.collection(constants.CollectionOrders)}
}

// Sequences 序列仓库
func (s *MongoStore) Sequences() SequenceRepository {
	return &mongoSequenceRepository{coll: s.collection(constants.CollectionSequences)}
}

// Driver 驱动名称
func (s *MongoStore) Driver() string { return constants.StoreDriverMongo }

// Transaction 开启会话事务（需副本集），未开启时顺序执行
func (s *MongoStore) Transaction(ctx context.Context, fn TxFunc) error {
	if fn == nil {
		return nil
	}
	if !s.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongo session: %w", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

// Close 断开连接
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateMongoError(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

var byCreation = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

// mongoProductRepository 商品集合
type mongoProductRepository struct {
	coll *mongo.Collection
}

func (r *mongoProductRepository) List(ctx context.Context) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *mongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, product)
	return translateMongoError(err)
}

func (r *mongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": product.ID}, product, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// mongoCartRepository 购物车集合
type mongoCartRepository struct {
	coll *mongo.Collection
}

func (r *mongoCartRepository) List(ctx context.Context) ([]models.CartItem, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoCartRepository) Upsert(ctx context.Context, productID string, quantity int, unitPrice models.Money) (*models.CartItem, error) {
	now := time.Now()
	subtotal := unitPrice.Mul(quantity)
	update := bson.M{
		"$inc":         bson.M{"quantity": quantity, "lineTotal": subtotal.InexactFloat64()},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	// 已有项累加后会溢出时过滤不命中，转为插入并触发唯一索引冲突
	filter := bson.M{"productId": productID, "orderId": "", "quantity": bson.M{"$lte": math.MaxInt - quantity}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var item models.CartItem
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrQuantityOverflow
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *mongoCartRepository) AttachOrder(ctx context.Context, orderID string, snapshot []models.CartItem) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	now := time.Now()
	var affected int64
	for _, item := range snapshot {
		if !item.Pending() {
			continue
		}
		filter := bson.M{"productId": item.ProductID, "orderId": "", "quantity": item.Quantity}
		result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"orderId": orderID, "updatedAt": now}})
		if err != nil {
			return affected, err
		}
		affected += result.ModifiedCount
	}
	return affected, nil
}

func (r *mongoCartRepository) DetachOrder(ctx context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return 0, err
	}
	var tagged []models.CartItem
	if err := cur.All(ctx, &tagged); err != nil {
		return 0, err
	}
	now := time.Now()
	var affected int64
	for _, item := range tagged {
		taggedFilter := bson.M{"productId": item.ProductID, "orderId": orderID}
		merge := bson.M{
			"$inc": bson.M{"quantity": item.Quantity, "lineTotal": item.LineTotal.InexactFloat64()},
			"$set": bson.M{"updatedAt": now},
		}
		pendingFilter := bson.M{"productId": item.ProductID, "orderId": "", "quantity": bson.M{"$lte": math.MaxInt - item.Quantity}}
		result, err := r.coll.UpdateOne(ctx, pendingFilter, merge)
		if err != nil {
			return affected, err
		}
		if result.MatchedCount > 0 {
			if _, err := r.coll.DeleteOne(ctx, taggedFilter); err != nil {
				return affected, err
			}
		} else {
			_, err := r.coll.UpdateOne(ctx, taggedFilter, bson.M{"$set": bson.M{"orderId": "", "updatedAt": now}})
			if mongo.IsDuplicateKeyError(err) {
				return affected, ErrQuantityOverflow
			}
			if err != nil {
				return affected, err
			}
		}
		affected++
	}
	return affected, nil
}

func (r *mongoCartRepository) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	if orderID == "" {
		return 0, nil
	}
	result, err := r.coll.DeleteMany(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoCartRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// mongoOrderRepository 订单集合，订单行内嵌
type mongoOrderRepository struct {
	coll *mongo.Collection
}

func (r *mongoOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.Items == nil {
		order.Items = []models.OrderLine{}
	}
	_, err := r.coll.InsertOne(ctx, order)
	return translateMongoError(err)
}

func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id string, status string) (int64, error) {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (r *mongoOrderRepository) UpdateLines(ctx context.Context, order *models.Order) error {
	if order == nil {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": bson.M{"items": order.Items}})
	return err
}

func (r *mongoOrderRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// mongoSequenceRepository 序列集合
type mongoSequenceRepository struct {
	coll *mongo.Collection
}

func (r *mongoSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var seq models.Sequence
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": int64(1)}}, opts).Decode(&seq)
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}
