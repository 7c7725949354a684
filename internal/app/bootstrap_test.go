package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dujiao-next/cartflow/internal/config"
	"github.com/dujiao-next/cartflow/internal/models"
	"github.com/dujiao-next/cartflow/internal/repository"

	"github.com/spf13/afero"
)

func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.Driver = "file"
	cfg.Store.DataDir = t.TempDir()
	return cfg
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "cartflow.db")
	return cfg
}

func TestBuildRunnerAPIMode(t *testing.T) {
	cfg := sqliteConfig(t)
	runner, err := BuildRunner(context.Background(), cfg, ModeAPI)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	if len(runner.services) != 1 || runner.services[0].Name() != "http" {
		t.Fatalf("api mode should run http only, got %d services", len(runner.services))
	}
	if len(runner.closers) != 2 {
		t.Fatalf("closers want 2 got %d", len(runner.closers))
	}
}

func TestBuildRunnerAllModeSkipsDisabledWorker(t *testing.T) {
	cfg := fileConfig(t)
	runner, err := BuildRunner(context.Background(), cfg, ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	if len(runner.services) != 1 {
		t.Fatalf("all mode with queue disabled want 1 service got %d", len(runner.services))
	}
}

func TestBuildRunnerFileStoreRequiresAllMode(t *testing.T) {
	for _, mode := range []string{ModeAPI, ModeWorker} {
		cfg := fileConfig(t)
		cfg.Queue.Enabled = true
		if _, err := BuildRunner(context.Background(), cfg, mode); err == nil {
			t.Fatalf("%s mode with file store should fail", mode)
		}
	}
	cfg := fileConfig(t)
	cfg.Store.Driver = ""
	if _, err := BuildRunner(context.Background(), cfg, ModeAPI); err == nil {
		t.Fatalf("api mode with default store should fail")
	}
}

func TestBuildRunnerWorkerModeRequiresQueue(t *testing.T) {
	cfg := sqliteConfig(t)
	if _, err := BuildRunner(context.Background(), cfg, ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	cfg := fileConfig(t)
	if _, err := BuildRunner(context.Background(), cfg, "batch"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if _, err := BuildRunner(context.Background(), nil, ModeAPI); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func TestBuildRunnerRecoversPendingPlacements(t *testing.T) {
	cfg := fileConfig(t)
	ctx := context.Background()

	seed, err := repository.NewFileStore(afero.NewOsFs(), cfg.Store.DataDir)
	if err != nil {
		t.Fatalf("open seed store failed: %v", err)
	}
	if _, err := seed.Cart().Upsert(ctx, "1", 2, models.NewMoneyFromFloat(5)); err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}
	if _, err := attachPending(ctx, seed.Cart(), "lost-order"); err != nil {
		t.Fatalf("seed attach failed: %v", err)
	}
	_ = seed.Close(ctx)

	if _, err := BuildRunner(ctx, cfg, ModeAll); err != nil {
		t.Fatalf("build runner failed: %v", err)
	}

	reopened, err := repository.NewFileStore(afero.NewOsFs(), cfg.Store.DataDir)
	if err != nil {
		t.Fatalf("reopen store failed: %v", err)
	}
	items, err := reopened.Cart().List(ctx)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 1 || items[0].OrderID != "" || items[0].Quantity != 2 {
		t.Fatalf("orphaned item should be back in the cart, got %+v", items)
	}
}

// attachPending 把当前全部未暂存项标记到订单
func attachPending(ctx context.Context, cart repository.CartRepository, orderID string) (int64, error) {
	items, err := cart.List(ctx)
	if err != nil {
		return 0, err
	}
	return cart.AttachOrder(ctx, orderID, items)
}
