package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
)

// OrderStatuses 全部合法订单状态（按流转顺序）
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// 订单行状态常量
const (
	OrderLineStateActive    = "active"
	OrderLineStateCancelled = "cancelled"
)

// 存储驱动常量
const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// 集合名称常量（文件存储文件名 / Mongo 集合名）
const (
	CollectionProducts  = "products"
	CollectionCart      = "cart"
	CollectionOrders    = "orders"
	CollectionSequences = "sequences"
)

// 序列名称常量
const (
	SequenceProductID = "product_id"
)

// 订单事件常量
const (
	OrderEventPlaced        = "placed"
	OrderEventStatusChanged = "status_changed"
	OrderEventDeleted       = "deleted"
	OrderEventLineCancelled = "line_cancelled"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskOrderEvent            = "order:event"
	TaskOrderPlacementRecover = "order:placement_recover"
)
