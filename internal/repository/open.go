package repository

import (
	"context"
	"fmt"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/constants"
	"github.com/dujiao-next/cartflow/internal/models"

	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OpenStore 按配置打开存储
func OpenStore(ctx context.Context, cfg config.StoreConfig, debug bool) (Store, error) {
	switch cfg.Driver {
	case "", constants.StoreDriverFile:
		return NewFileStore(afero.NewOsFs(), cfg.DataDir)
	case constants.StoreDriverSQLite, constants.StoreDriverPostgres, "postgresql":
		db, err := models.OpenDB(cfg.Driver, cfg.DSN, cfg.Pool.ToDBPoolConfig(), debug)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := models.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		driver := cfg.Driver
		if driver == "postgresql" {
			driver = constants.StoreDriverPostgres
		}
		return NewGormStore(db, driver), nil
	case constants.StoreDriverMongo:
		return openMongoStore(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// SingleProcess 文件存储把数据缓存在进程内存中，只能由一个进程打开
func SingleProcess(driver string) bool {
	return driver == "" || driver == constants.StoreDriverFile
}

func openMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store, err := NewMongoStore(connectCtx, client, cfg.Database, cfg.Transactions)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}
