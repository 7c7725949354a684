package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/logger"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/repository"
	"github.com/dujiao-next/cartflow/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	id          string
	name        string
	description string
	price       string
	stock       int
	imageURL    string
}

var catalog = []seedProduct{
	{id: "1", name: "Wireless Mouse", description: "2.4GHz ergonomic mouse", price: "19.99", stock: 50, imageURL: "https://picsum.photos/seed/mouse/400/300"},
	{id: "2", name: "Mechanical Keyboard", description: "87-key, brown switches", price: "79.00", stock: 20, imageURL: "https://picsum.photos/seed/keyboard/400/300"},
	{id: "3", name: "USB-C Hub", description: "7-in-1 with HDMI and PD", price: "34.50", stock: 35, imageURL: "https://picsum.photos/seed/hub/400/300"},
	{id: "4", name: "Ceramic Mug", description: "350ml, dishwasher safe", price: "9.90", stock: 120, imageURL: "https://picsum.photos/seed/mug/400/300"},
	{id: "5", name: "Desk Lamp", description: "Dimmable LED, warm light", price: "27.00", stock: 15, imageURL: "https://picsum.photos/seed/lamp/400/300"},
}

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config.yml")
	flag.Parse()

	cfg := config.LoadFile(*configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.OpenStore(ctx, cfg.Store, false)
	if err != nil {
		stdLog.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			stdLog.Printf("Failed to close store: %v", err)
		}
	}()

	products := service.NewProductService(store)
	created := 0
	for _, item := range catalog {
		price := models.NewMoneyFromDecimal(decimal.RequireFromString(item.price))
		stock := item.stock
		_, err := products.Create(ctx, service.CreateProductInput{
			ID:          item.id,
			Name:        item.name,
			Description: item.description,
			Price:       &price,
			Stock:       &stock,
			ImageURL:    item.imageURL,
		})
		switch {
		case errors.Is(err, service.ErrProductIDConflict):
			stdLog.Printf("Product already exists: %s", item.id)
		case err != nil:
			stdLog.Printf("Failed to create product %s: %v", item.id, err)
		default:
			created++
			stdLog.Printf("Created product: %s %s", item.id, item.name)
		}
	}
	logger.Infow("seed_completed", "driver", store.Driver(), "created", created, "total", len(catalog))
}
